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

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Component 長時間運行的元件（HTTP server、session Runtime）。
// Run 阻塞到停止為止；Shutdown 須在 ctx 期限內返回。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// App 生命週期管理器：並行啟動所有 Component，收到 OS 信號或任一 Component 返回時，
// 依註冊順序關閉全部元件。建議先註冊對外的 server，再註冊其依賴（例如 Runtime）。
type App struct {
	comps   []Component
	Timeout time.Duration // 關閉期限，0 使用 5s
}

func New() *App { return &App{} }

func NewWith(comps ...Component) *App { return &App{comps: comps} }

// Register 關閉順序即註冊順序
func (a *App) Register(c Component) { a.comps = append(a.comps, c) }

// Run 阻塞直到 SIGINT/SIGTERM 或任一 Component.Run 返回，之後關閉全部元件。
// 回傳各元件 Run 的錯誤與關閉錯誤。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 同 Run，但以 ctx 取代 OS 信號（測試或嵌入既有程式）。
// 關閉後最多再等一個 Timeout 讓各 Run 返回，逾時不再等待。
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	runErrs := make([]error, len(a.comps))
	for i, c := range a.comps {
		g.Go(func() error {
			runErrs[i] = c.Run()
			cancel() // 任一元件停止即全部關閉
			return nil
		})
	}
	<-ctx.Done()

	err := a.shutdown()
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(a.timeout()):
		return errors.Join(err, errors.New("app: components did not stop in time"))
	}
	return errors.Join(append(runErrs, err)...)
}

func (a *App) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return 5 * time.Second
}

// shutdown 依註冊順序關閉，共用同一個期限
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout())
	defer cancel()
	var all []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			all = append(all, fmt.Errorf("shutdown %T: %w", c, err))
		}
	}
	return errors.Join(all...)
}
