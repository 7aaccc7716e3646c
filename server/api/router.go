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

package api

import (
	"github.com/zintix-labs/reelkit"
	v1 "github.com/zintix-labs/reelkit/server/api/v1"
	"github.com/zintix-labs/reelkit/server/netsvr"
	"github.com/zintix-labs/reelkit/server/netsvr/middleware"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有路由。
// rt 由呼叫端建立並負責關閉；sCfg 必須已通過 Vaild。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *reelkit.Runtime) {
	registerMiddleware(svr, sCfg) // 1. 註冊 middleware
	registerOps(svr, sCfg)        // 2. 健康檢查、metrics
	registerV1API(svr, sCfg, rt)  // 3. 註冊 v1 api
}

// 順序：請求編號 → access log → panic 攔截 → metrics → 壓縮
func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(sCfg.Metrics.Middleware)
	svr.Use(middleware.Compression)
}

func registerOps(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Handle("/metrics", sCfg.Metrics.Handler())
	svr.Get("/healthz", v1.Healthz)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg, rt *reelkit.Runtime) {
	g := v1.NewGameHandler(sCfg.Kit)
	s := v1.NewSessionHandler(rt, sCfg.Log, sCfg.SpinTimeout)
	m := v1.NewSimHandler(sCfg.Kit, sCfg.Log, sCfg.SimTimeout, sCfg.SimMaxWorker)

	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/games", g.Games)
		vOne.Get("/games/{gid}/jackpot", g.Jackpot)

		vOne.Post("/sessions", s.Open)
		vOne.Get("/sessions/{sid}", s.Get)
		vOne.Delete("/sessions/{sid}", s.Delete)
		vOne.Post("/sessions/{sid}/spin", s.Spin)
		vOne.Get("/sessions/{sid}/checkpoint", s.Checkpoint)
		vOne.Post("/sessions/{sid}/resume", s.Resume)

		vOne.Get("/sim", m.Sim)
		vOne.Post("/sim", m.Sim)
		vOne.Post("/sim/config", m.SimByConfig)
		vOne.Get("/fit", m.Fit)
	})
}
