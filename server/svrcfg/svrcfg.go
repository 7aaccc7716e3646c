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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/server/logger"
	"github.com/zintix-labs/reelkit/server/metrics"
)

// SvrCfg server 組裝所需的全部依賴，由外層（cmd/svr、demo）明確注入
type SvrCfg struct {
	Log     *slog.Logger
	Kit     *reelkit.Kit
	Metrics *metrics.Metrics // nil 時自動建立

	Addr         string        // 空字串使用 netsvr.DefaultAddr
	MaxSessions  int           // 0 使用 Runtime 預設
	SessionTTL   time.Duration // 0 使用 Runtime 預設
	SpinTimeout  time.Duration // 單一 spin 請求逾時，預設 5s
	SimTimeout   time.Duration // 模擬請求逾時，預設 60s
	SimMaxWorker int           // 模擬最大併發，1..16，預設 4
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Kit == nil {
		return errs.NewFatal("kit is required")
	}
	if sc.Metrics == nil {
		sc.Metrics = metrics.New()
	}
	if sc.MaxSessions < 0 {
		return errs.Fatalf("max sessions %d must be >= 0", sc.MaxSessions)
	}
	if sc.SessionTTL < 0 {
		return errs.Fatalf("session ttl %s must be >= 0", sc.SessionTTL)
	}
	if sc.SpinTimeout <= 0 {
		sc.SpinTimeout = 5 * time.Second
	}
	if sc.SimTimeout <= 0 {
		sc.SimTimeout = 60 * time.Second
	}
	if sc.SimMaxWorker == 0 {
		sc.SimMaxWorker = 4
	}
	// 1 <= SimMaxWorker <= 16，資源管理
	sc.SimMaxWorker = min(16, max(1, sc.SimMaxWorker))
	return nil
}

// RuntimeOptions 轉成 reelkit.RuntimeOptions
func (sc *SvrCfg) RuntimeOptions() reelkit.RuntimeOptions {
	return reelkit.RuntimeOptions{MaxSessions: sc.MaxSessions, SessionTTL: sc.SessionTTL}
}
