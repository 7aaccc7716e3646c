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

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/server/api"
	"github.com/zintix-labs/reelkit/server/app"
	"github.com/zintix-labs/reelkit/server/netsvr"
	"github.com/zintix-labs/reelkit/server/svrcfg"
)

// Run 是 server 套件的組裝器與啟動入口：
//  1. 驗證 SvrCfg（logger、Kit、metrics）。
//  2. 將 logger 與 metrics observer 接到 Kit，建立 Runtime。
//  3. 建立 HTTP server 並註冊路由。
//  4. 交給 app.Run() 管理生命週期，收到 SIGINT/SIGTERM 時關閉 server 與 Runtime。
//
// 所有依賴都由 SvrCfg 注入，這裡不讀檔案也不讀環境變數。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的 logger 不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	// 寫入逾時要蓋過模擬請求的逾時
	RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr, netsvr.WithTimeouts(0, sCfg.SimTimeout+5*time.Second, 0)))
}

// RunWithSvr 與 Run 相同，但使用呼叫端注入的 NetSvr（自訂 timeout、listener 等）
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}

	rt, err := Assemble(svr, sCfg)
	if err != nil {
		sCfg.Log.Error("assemble failed", slog.Any("err", err))
		return
	}

	a := app.NewWith(svr, rt)
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[reelkit] listening on http://localhost" + s.Address())
	}
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
}

// Assemble 接上 logger 與 metrics，建立 Runtime 並註冊路由。
// 回傳的 Runtime 由呼叫端負責關閉。
func Assemble(r netsvr.NetRouter, sCfg *svrcfg.SvrCfg) (*reelkit.Runtime, error) {
	sCfg.Kit.SetLogger(sCfg.Log)
	sCfg.Kit.SetObserver(sCfg.Metrics.For)
	rt, err := sCfg.Kit.BuildRuntime(sCfg.RuntimeOptions())
	if err != nil {
		return nil, errs.Wrap(err, "build runtime")
	}
	api.RegisterRoutes(r, sCfg, rt)
	return rt, nil
}

// NewHandler 不啟動監聽，只回傳組裝好的 http.Handler（測試或掛載到既有服務）
func NewHandler(sCfg *svrcfg.SvrCfg) (http.Handler, *reelkit.Runtime, error) {
	if err := sCfg.Vaild(); err != nil {
		return nil, nil, err
	}
	c := netsvr.NewChiServer(sCfg.Addr)
	rt, err := Assemble(c, sCfg)
	if err != nil {
		return nil, nil, err
	}
	return c.Handler(), rt, nil
}
