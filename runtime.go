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

package reelkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/slot"
	"github.com/zintix-labs/reelkit/spec"
)

const (
	defaultMaxSessions = 10000
	defaultSessionTTL  = 30 * time.Minute
)

// RuntimeOptions Runtime 設定，零值使用預設
type RuntimeOptions struct {
	MaxSessions int           // 同時存活的 session 上限，超過時淘汰最久未使用者
	SessionTTL  time.Duration // 閒置多久後過期
}

// Runtime 對外服務的 session 管理器：以 uuid 作為 session id，存放在可過期的 LRU 中。
type Runtime struct {
	kit *Kit

	// data-plane
	sessions *expirable.LRU[string, *Machine]
	ids      []spec.GID

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// BuildRuntime 進入執行階段：catalog Freeze，並預先建立每款遊戲的共用彩金池（fail-fast）。
func (k *Kit) BuildRuntime(opt RuntimeOptions) (*Runtime, error) {
	k.Freeze()

	ids := k.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no games registered")
	}
	for _, id := range ids {
		if _, err := k.Pool(id); err != nil {
			return nil, err
		}
	}
	if opt.MaxSessions <= 0 {
		opt.MaxSessions = defaultMaxSessions
	}
	if opt.SessionTTL <= 0 {
		opt.SessionTTL = defaultSessionTTL
	}

	rt := &Runtime{
		kit:      k,
		sessions: expirable.NewLRU[string, *Machine](opt.MaxSessions, nil, opt.SessionTTL),
		ids:      ids,
		done:     make(chan struct{}),
	}
	rt.reason.Store("")
	return rt, nil
}

// Open 為玩家開一台機台，回傳 session id。seed 為 nil 時使用 crypto 種子。
func (rt *Runtime) Open(ctx context.Context, gid spec.GID, balance int64, seed *int64) (string, *Machine, error) {
	if err := rt.check(ctx); err != nil {
		return "", nil, err
	}
	var (
		m   *Machine
		err error
	)
	if seed != nil {
		m, err = rt.kit.NewMachineWithSeed(gid, balance, *seed)
	} else {
		m, err = rt.kit.NewMachine(gid, balance)
	}
	if err != nil {
		return "", nil, err
	}
	sid := uuid.NewString()
	rt.sessions.Add(sid, m)
	return sid, m, nil
}

// Get 取得 session 對應的機台（同時刷新 LRU 順序）
func (rt *Runtime) Get(sid string) (*Machine, error) {
	m, ok := rt.sessions.Get(sid)
	if !ok {
		return nil, errs.NewCode(errs.Warn, errs.CodeNotFound, "session not found or expired")
	}
	return m, nil
}

// Spin 對指定 session 下注一轉
func (rt *Runtime) Spin(ctx context.Context, sid string, amount int64) (slot.SpinResult, error) {
	if err := rt.check(ctx); err != nil {
		return slot.SpinResult{}, err
	}
	m, err := rt.Get(sid)
	if err != nil {
		return slot.SpinResult{}, err
	}
	return m.Spin(amount)
}

// Delete 結束 session
func (rt *Runtime) Delete(sid string) bool {
	return rt.sessions.Remove(sid)
}

// Len 存活中的 session 數
func (rt *Runtime) Len() int {
	return rt.sessions.Len()
}

// IDs 可開局的遊戲
func (rt *Runtime) IDs() []spec.GID {
	return append([]spec.GID(nil), rt.ids...)
}

func (rt *Runtime) Kit() *Kit { return rt.kit }

func (rt *Runtime) check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(ctx.Err(), "spin canceled/timeout")
	case <-rt.done:
		rt.closed.Store(true)
		return errs.NewCode(errs.Fatal, errs.CodeUnavailable, "slot runtime closed: "+rt.ClosedReason())
	default:
		return nil
	}
}

// Run 阻塞直到 runtime 關閉，讓 Runtime 可交給 app.App 管理
func (rt *Runtime) Run() error {
	<-rt.done
	return nil
}

// Shutdown 關閉 runtime
func (rt *Runtime) Shutdown(context.Context) error {
	rt.closeWithReason("shutdown")
	return nil
}

// Close 關閉 runtime 並清空所有 session，可重複呼叫
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		rt.sessions.Purge()
		close(rt.done)
	})
}

func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
