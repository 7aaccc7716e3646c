// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package demo 內建兩款示範遊戲（classic、fruits），供 cmd 與測試直接使用。
package demo

import (
	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/catalog"
	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/server/logger"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewKit 以內建設定建立 Kit，自動註冊所有遊戲
func NewKit() (*reelkit.Kit, error) {
	return reelkit.NewAuto(core.Default(), reelkit.Configs(demo_configs.FS))
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	kit, err := NewKit()
	if err != nil {
		return nil, errs.Wrap(err, "new reelkit failed")
	}
	log, _ := logger.NewAsync(4096, logger.ModeDev)
	return &svrcfg.SvrCfg{Log: log, Kit: kit}, nil
}
