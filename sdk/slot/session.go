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

// Package slot 是單一玩家的拉霸 session：串接下注驗證、彩金池、保底與滾輪生成，
// 一次只處理一轉。
package slot

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/bet"
	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/jackpot"
	"github.com/zintix-labs/reelkit/sdk/reel"
	"github.com/zintix-labs/reelkit/sdk/streak"
	"github.com/zintix-labs/reelkit/sdk/symbol"
)

// Phase session 狀態
type Phase int32

const (
	Idle       Phase = iota // 等待下注，唯一能接受新一轉的狀態
	Validating              // 下注驗證中
	Resolving               // 扣注、擲骰、生成與判定
	Settled                 // 派彩入帳、更新連敗
)

var phaseName = [...]string{"idle", "validating", "resolving", "settled"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseName) {
		return phaseName[p]
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// CodeBusy 重入拒絕代碼
const CodeBusy = "busy"

// ErrBusy 非 Idle 狀態收到新的下注
var ErrBusy = errs.NewCode(errs.Warn, CodeBusy, "spin already in progress")

// SpinResult 一轉的完整結果。以值回傳，切片每次重新配置，呼叫端可自由持有。
type SpinResult struct {
	Reels            []symbol.ID  `json:"reels"`
	IsWin            bool         `json:"is_win"`
	WinType          calc.WinType `json:"win_type"`
	Symbol           symbol.ID    `json:"symbol,omitempty"`
	Payout           int64        `json:"payout"`
	WinningPositions []int        `json:"winning_positions"`
	Bet              int64        `json:"bet"`
	Balance          int64        `json:"balance"`
	Mode             reel.Kind    `json:"mode"`
	JackpotPool      int64        `json:"jackpot_pool"`
	Streak           streak.State `json:"streak"`
}

// Observer 每轉結束或拒絕時被同步呼叫（例如 metrics）。
// OnSpin 在 session 回到 Idle 之前呼叫。
type Observer interface {
	OnSpin(SpinResult)
	OnReject(code string)
}

type nopObserver struct{}

func (nopObserver) OnSpin(SpinResult) {}
func (nopObserver) OnReject(string)   {}

// SessionConfig 建立 session 所需的全部協作者
type SessionConfig struct {
	Table         *symbol.Table
	JackpotSymbol symbol.ID
	Curve         streak.Curve
	Pool          *jackpot.Pool // 可多個 session 共用
	Limits        bet.Limits
	Partial       calc.PartialRule
	Wallet        Wallet
	Core          *core.Core   // nil 時以 crypto 種子建立 PCG64
	Logger        *slog.Logger // nil 時丟棄
	Observer      Observer     // nil 時不通知
}

// Session 單一玩家的拉霸 session
type Session struct {
	phase   atomic.Int32
	gen     *reel.Generator
	tracker *streak.Tracker
	pool    *jackpot.Pool
	limits  bet.Limits
	partial calc.PartialRule
	wallet  Wallet
	core    *core.Core
	log     *slog.Logger
	obs     Observer

	// last 最近一次結算後的連敗與餘額。查詢端只讀這份，轉動中的半套狀態不會外露。
	last atomic.Pointer[Settlement]
}

// Settlement 兩轉之間的穩定狀態
type Settlement struct {
	Streak  streak.State `json:"streak"`
	Balance int64        `json:"balance"`
}

// Resetter 可直接設定餘額的錢包，Resume 需要
type Resetter interface {
	Reset(balance int64) error
}

// ============================================================
// ** 創建 session **
// ============================================================

// NewSession 依設定建立 session，初始狀態為 Idle
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Pool == nil {
		return nil, errs.NewFatal("slot: jackpot pool is required")
	}
	if cfg.Wallet == nil {
		return nil, errs.NewFatal("slot: wallet is required")
	}
	if err := cfg.Limits.Valid(); err != nil {
		return nil, err
	}
	if err := cfg.Partial.Valid(); err != nil {
		return nil, err
	}
	c := cfg.Core
	if c == nil {
		rng, err := core.NewPCG64()
		if err != nil {
			return nil, errs.Wrap(err, "slot: seed prng")
		}
		c = core.New(rng)
	}
	gen, err := reel.New(cfg.Table, cfg.JackpotSymbol, c)
	if err != nil {
		return nil, err
	}
	tr, err := streak.NewTracker(cfg.Curve, c)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	s := &Session{
		gen:     gen,
		tracker: tr,
		pool:    cfg.Pool,
		limits:  cfg.Limits,
		partial: cfg.Partial,
		wallet:  cfg.Wallet,
		core:    c,
		log:     log,
		obs:     obs,
	}
	s.publish()
	return s, nil
}

// publish 只在持有 phase（非 Idle）時呼叫
func (s *Session) publish() {
	s.last.Store(&Settlement{Streak: s.tracker.State(), Balance: s.wallet.Balance()})
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// RequestSpin 唯一的下注入口。
//
// 非 Idle 時回傳 ErrBusy；下注被拒時回傳 bet 包的拒絕錯誤，
// 餘額、連敗與彩金池都不會變動。
func (s *Session) RequestSpin(amount int64) (SpinResult, error) {
	if !s.phase.CompareAndSwap(int32(Idle), int32(Validating)) {
		s.obs.OnReject(CodeBusy)
		return SpinResult{}, ErrBusy
	}
	defer s.phase.Store(int32(Idle))

	if err := bet.Validate(amount, s.wallet.Balance(), s.limits); err != nil {
		s.obs.OnReject(bet.Reason(err))
		return SpinResult{}, err
	}

	s.phase.Store(int32(Resolving))
	if err := s.wallet.Debit(amount); err != nil {
		s.obs.OnReject(errs.CodeOf(err))
		return SpinResult{}, errs.Wrap(err, "slot: debit bet")
	}
	s.pool.Contribute(amount)

	st := s.tracker.State()
	mode := reel.NewWeighted()
	if s.core.Chance(s.pool.Chance(amount, st.SpinCount)) {
		mode = reel.NewJackpotLine()
	} else if s.tracker.ShouldForceWin(st.ConsecutiveLosses) {
		mode = reel.NewForcedLine(s.gen.PickForced())
		s.log.Debug("pity triggered",
			slog.Int("losses", st.ConsecutiveLosses),
			slog.String("symbol", string(mode.Symbol)),
		)
	}

	outcome := s.gen.Draw(mode)
	ev := calc.Evaluate(outcome, mode.Kind == reel.JackpotLine, s.partial)
	var payout int64
	switch ev.WinType {
	case calc.Jackpot:
		amt := s.pool.Award()
		payout = calc.Payout(calc.Jackpot, amount, 0, amt)
		s.log.Info("jackpot awarded",
			slog.Int64("amount", amt),
			slog.Int64("bet", amount),
			slog.Int("spin", st.SpinCount+1),
		)
	case calc.Line:
		payout = calc.Payout(calc.Line, amount, s.gen.Table().MultiplierOf(ev.Symbol), 0)
	case calc.Partial:
		payout = calc.Payout(calc.Partial, amount, s.partial.Multiplier, 0)
	}
	// 取整後派彩為 0 的兩連線（小注 * 小倍數）視為未中獎，連敗照常累積
	if ev.WinType == calc.Partial && payout == 0 {
		ev = calc.Evaluation{WinType: calc.None, Positions: []int{}}
	}

	s.phase.Store(int32(Settled))
	if payout > 0 {
		s.wallet.Credit(payout)
	}
	s.tracker.Record(ev.IsWin)
	s.publish()
	last := s.last.Load()

	res := SpinResult{
		Reels:            outcome.Symbols(),
		IsWin:            ev.IsWin,
		WinType:          ev.WinType,
		Symbol:           ev.Symbol,
		Payout:           payout,
		WinningPositions: append([]int{}, ev.Positions...),
		Bet:              amount,
		Balance:          last.Balance,
		Mode:             mode.Kind,
		JackpotPool:      s.pool.Amount().Floor().IntPart(),
		Streak:           last.Streak,
	}
	s.obs.OnSpin(res)
	return res, nil
}

// Restore 帶回外部保存的連敗狀態，只能在 Idle 時呼叫
func (s *Session) Restore(st streak.State) error {
	if !s.phase.CompareAndSwap(int32(Idle), int32(Validating)) {
		return ErrBusy
	}
	defer s.phase.Store(int32(Idle))
	if err := s.tracker.Restore(st); err != nil {
		return err
	}
	s.publish()
	return nil
}

// Snapshot session 可保存的狀態：連敗、餘額與亂數核心。彩金池不在其中。
type Snapshot struct {
	Streak  streak.State `json:"streak"`
	Balance int64        `json:"balance"`
	Core    []byte       `json:"core"`
}

// Snapshot 取得快照，只能在 Idle 時呼叫
func (s *Session) Snapshot() (Snapshot, error) {
	if !s.phase.CompareAndSwap(int32(Idle), int32(Validating)) {
		return Snapshot{}, ErrBusy
	}
	defer s.phase.Store(int32(Idle))
	raw, err := s.core.Snapshot()
	if err != nil {
		return Snapshot{}, errs.Wrap(err, "slot: snapshot core")
	}
	return Snapshot{Streak: s.tracker.State(), Balance: s.wallet.Balance(), Core: raw}, nil
}

// Resume 還原 Snapshot，餘額一併寫回錢包（錢包須實作 Resetter）。
// 全程持有 phase，任一部分失敗時整體不變。
func (s *Session) Resume(sn Snapshot) error {
	rw, ok := s.wallet.(Resetter)
	if !ok {
		return errs.NewFatal("slot: wallet cannot be reset")
	}
	if sn.Balance < 0 {
		return errs.Warnf("slot: snapshot balance %d must be >= 0", sn.Balance)
	}
	if !s.phase.CompareAndSwap(int32(Idle), int32(Validating)) {
		return ErrBusy
	}
	defer s.phase.Store(int32(Idle))

	prevStreak := s.tracker.State()
	prevCore, err := s.core.Snapshot()
	if err != nil {
		return errs.Wrap(err, "slot: snapshot core")
	}
	rollback := func() {
		_ = s.tracker.Restore(prevStreak)
		_ = s.core.Restore(prevCore)
	}
	if err := s.tracker.Restore(sn.Streak); err != nil {
		return err
	}
	if len(sn.Core) != 0 {
		if err := s.core.Restore(sn.Core); err != nil {
			rollback()
			return errs.Wrap(err, "slot: restore core")
		}
	}
	if err := rw.Reset(sn.Balance); err != nil {
		rollback()
		return err
	}
	s.publish()
	return nil
}

// Phase 目前狀態
func (s *Session) Phase() Phase { return Phase(s.phase.Load()) }

// Settled 最近一次結算後的狀態，可與 RequestSpin 併發呼叫
func (s *Session) Settled() Settlement { return *s.last.Load() }

// Streak 最近一次結算後的連敗狀態
func (s *Session) Streak() streak.State { return s.last.Load().Streak }

// Balance 最近一次結算後的餘額
func (s *Session) Balance() int64 { return s.last.Load().Balance }

// Pool 使用中的彩金池
func (s *Session) Pool() *jackpot.Pool { return s.pool }

// Limits 下注上下限
func (s *Session) Limits() bet.Limits { return s.limits }

// Table 圖標目錄
func (s *Session) Table() *symbol.Table { return s.gen.Table() }

// PityChance 下一轉的保底機率
func (s *Session) PityChance() float64 {
	return s.tracker.Probability(s.Streak().ConsecutiveLosses)
}
