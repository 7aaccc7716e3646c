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

package slot

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/sdk/bet"
	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/jackpot"
	"github.com/zintix-labs/reelkit/sdk/reel"
	"github.com/zintix-labs/reelkit/sdk/streak"
	"github.com/zintix-labs/reelkit/sdk/symbol"
)

// 亂數消耗順序（每轉）：
//
//	彩金判定 1 次 -> [命中] 結束
//	           -> 保底判定 1 次 -> [命中] 保底圖標 1 次
//	                          -> 三輪各 1 次
//
// A/B/C 權重 50/30/20：0.1->A 0.6->B 0.9->C；保底只在 A/B 間抽：0.1->A 0.7->B
var (
	lose   = []float64{0.99, 0.99, 0.1, 0.6, 0.9}
	forceA = []float64{0.99, 0.0, 0.1}
	forceB = []float64{0.99, 0.0, 0.7}
)

func abcTable() *symbol.Table {
	return symbol.MustNew([]symbol.Symbol{
		{ID: "A", Weight: 50, Multiplier: 2},
		{ID: "B", Weight: 30, Multiplier: 5},
		{ID: "C", Weight: 20, Multiplier: 10},
	})
}

func testPool(t *testing.T, minSpins int) *jackpot.Pool {
	t.Helper()
	p, err := jackpot.NewPool(50000, 0.01, jackpot.Odds{
		BaseChance:   0.0002,
		ReferenceBet: 10,
		Ceiling:      0.005,
		MinSpins:     minSpins,
	})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return p
}

func testConfig(t *testing.T, balance int64, rng core.PRNG) SessionConfig {
	t.Helper()
	tb := abcTable()
	return SessionConfig{
		Table:         tb,
		JackpotSymbol: "C",
		Curve:         streak.Curve{Base: tb.LineProbability(), Cap: 0.35, Growth: 0.08},
		Pool:          testPool(t, 5),
		Limits:        bet.Limits{Min: 10, Max: 1000},
		Wallet:        NewPurse(balance),
		Core:          core.New(rng),
	}
}

func newSession(t *testing.T, cfg SessionConfig) *Session {
	t.Helper()
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func script(parts ...[]float64) *core.Script {
	var vals []float64
	for _, p := range parts {
		vals = append(vals, p...)
	}
	return core.NewScript(vals...)
}

func mustSpin(t *testing.T, s *Session, amount int64) SpinResult {
	t.Helper()
	res, err := s.RequestSpin(amount)
	if err != nil {
		t.Fatalf("spin %d: %v", amount, err)
	}
	return res
}

func sameReels(got []symbol.ID, want ...symbol.ID) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// TestForcedLinePayout 下注 10，保底落在 B -> 派彩 50、line
func TestForcedLinePayout(t *testing.T) {
	s := newSession(t, testConfig(t, 1000, script(forceB)))
	res := mustSpin(t, s, 10)
	if res.Mode != reel.ForcedLine || !sameReels(res.Reels, "B", "B", "B") {
		t.Fatalf("unexpected outcome %v mode=%v", res.Reels, res.Mode)
	}
	if res.WinType != calc.Line || res.Payout != 50 || !res.IsWin {
		t.Fatalf("win=%v payout=%d", res.WinType, res.Payout)
	}
	if res.Balance != 1040 || s.Balance() != 1040 {
		t.Fatalf("balance = %d", res.Balance)
	}
	if len(res.WinningPositions) != 3 {
		t.Fatalf("positions = %v", res.WinningPositions)
	}
}

// TestRejectLeavesStateUntouched 餘額 100 下注 500 -> aboveMaximum，兩次結果相同且狀態不變
func TestRejectLeavesStateUntouched(t *testing.T) {
	rng := script(lose)
	cfg := testConfig(t, 100, rng)
	s := newSession(t, cfg)
	pool := s.Pool().Amount()

	var reasons []string
	for i := 0; i < 2; i++ {
		_, err := s.RequestSpin(500)
		if !errors.Is(err, bet.ErrAboveMaximum) {
			t.Fatalf("spin 500 on balance 100: %v", err)
		}
		reasons = append(reasons, bet.Reason(err))
	}
	if reasons[0] != reasons[1] {
		t.Fatalf("reasons differ: %v", reasons)
	}
	if s.Balance() != 100 || s.Streak() != (streak.State{}) || !s.Pool().Amount().Equal(pool) {
		t.Fatalf("state mutated: balance=%d streak=%+v pool=%s", s.Balance(), s.Streak(), s.Pool().Amount())
	}
	if rng.Consumed() != 0 {
		t.Fatalf("rejection consumed randomness")
	}
	if s.Phase() != Idle {
		t.Fatalf("phase = %v", s.Phase())
	}
}

// TestJackpotAward 彩金池 128000、seed 50000，命中後派 128000 並重置
func TestJackpotAward(t *testing.T) {
	cfg := testConfig(t, 1000, script([]float64{0.0}))
	cfg.Pool = testPool(t, 0)
	if err := cfg.Pool.Reseed(decimal.NewFromInt(128000)); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	s := newSession(t, cfg)
	res := mustSpin(t, s, 10)
	if res.WinType != calc.Jackpot || res.Mode != reel.JackpotLine {
		t.Fatalf("win type = %v mode = %v", res.WinType, res.Mode)
	}
	if !sameReels(res.Reels, "C", "C", "C") {
		t.Fatalf("jackpot reels = %v", res.Reels)
	}
	if res.Payout != 128000 {
		t.Fatalf("payout = %d", res.Payout)
	}
	if !s.Pool().Amount().Equal(decimal.NewFromInt(50000)) || res.JackpotPool != 50000 {
		t.Fatalf("pool not reset: %s", s.Pool().Amount())
	}
	if res.Balance != 1000-10+128000 {
		t.Fatalf("balance = %d", res.Balance)
	}
}

// TestPityAfterLosingStreak 連敗 10 轉後第 11 轉觸發保底，連敗歸零
func TestPityAfterLosingStreak(t *testing.T) {
	parts := make([][]float64, 0, 11)
	for i := 0; i < 10; i++ {
		parts = append(parts, lose)
	}
	parts = append(parts, forceA)
	s := newSession(t, testConfig(t, 1000, script(parts...)))

	base := s.PityChance()
	for i := 0; i < 10; i++ {
		res := mustSpin(t, s, 10)
		if res.IsWin || !sameReels(res.Reels, "A", "B", "C") {
			t.Fatalf("spin %d should lose: %v", i, res.Reels)
		}
	}
	if got := s.Streak(); got.ConsecutiveLosses != 10 || got.SpinCount != 10 {
		t.Fatalf("streak = %+v", got)
	}
	if s.PityChance() <= base {
		t.Fatalf("pity chance must grow with losses: %v -> %v", base, s.PityChance())
	}

	res := mustSpin(t, s, 10)
	if res.Mode != reel.ForcedLine || res.WinType != calc.Line || !sameReels(res.Reels, "A", "A", "A") {
		t.Fatalf("expected forced line, got %v %v", res.Mode, res.Reels)
	}
	if got := s.Streak(); got.ConsecutiveLosses != 0 || got.SpinCount != 11 {
		t.Fatalf("streak after forced win = %+v", got)
	}
	if s.Balance() != 1000-110+20 {
		t.Fatalf("balance = %d", s.Balance())
	}
}

type reentrant struct {
	s       *Session
	phase   Phase
	err     error
	rejects []string
}

func (r *reentrant) OnSpin(SpinResult) {
	r.phase = r.s.Phase()
	_, r.err = r.s.RequestSpin(10)
}

func (r *reentrant) OnReject(code string) { r.rejects = append(r.rejects, code) }

// TestReentrantSpinRejected 結算中再次下注必須被拒
func TestReentrantSpinRejected(t *testing.T) {
	obs := &reentrant{}
	cfg := testConfig(t, 1000, script(lose))
	cfg.Observer = obs
	s := newSession(t, cfg)
	obs.s = s

	mustSpin(t, s, 10)
	if obs.phase != Settled {
		t.Fatalf("observer saw phase %v", obs.phase)
	}
	if !errors.Is(obs.err, ErrBusy) {
		t.Fatalf("re-entrant spin: %v", obs.err)
	}
	if len(obs.rejects) != 1 || obs.rejects[0] != CodeBusy {
		t.Fatalf("rejects = %v", obs.rejects)
	}
	if s.Streak().SpinCount != 1 || s.Phase() != Idle {
		t.Fatalf("re-entrant spin leaked: %+v %v", s.Streak(), s.Phase())
	}
	if err := s.Restore(streak.State{ConsecutiveLosses: 3, SpinCount: 5}); err != nil {
		t.Fatalf("restore while idle: %v", err)
	}
}

// TestAtMostOneAward 每轉 Award 最多一次
func TestAtMostOneAward(t *testing.T) {
	cfg := testConfig(t, 1_000_000, script([]float64{0.0}, lose, lose))
	cfg.Pool = testPool(t, 0)
	s := newSession(t, cfg)
	for i := 0; i < 60; i++ {
		before := s.Pool().Awards()
		res := mustSpin(t, s, 10)
		delta := s.Pool().Awards() - before
		if delta > 1 {
			t.Fatalf("spin %d awarded %d times", i, delta)
		}
		if (res.WinType == calc.Jackpot) != (delta == 1) {
			t.Fatalf("spin %d: win type %v with %d awards", i, res.WinType, delta)
		}
	}
	if s.Pool().Awards() != 20 {
		t.Fatalf("awards = %d, want 20", s.Pool().Awards())
	}
}

func TestPartialRule(t *testing.T) {
	cfg := testConfig(t, 1000, script([]float64{0.99, 0.99, 0.1, 0.9, 0.1}))
	cfg.Partial = calc.PartialRule{Enabled: true, Multiplier: 0.5}
	s := newSession(t, cfg)
	res := mustSpin(t, s, 15)
	if res.WinType != calc.Partial || res.Payout != 7 {
		t.Fatalf("partial: %v payout=%d", res.WinType, res.Payout)
	}
	if len(res.WinningPositions) != 2 || res.WinningPositions[0] != 0 || res.WinningPositions[1] != 2 {
		t.Fatalf("positions = %v", res.WinningPositions)
	}
	if s.Streak().ConsecutiveLosses != 0 {
		t.Fatalf("partial win must reset losses")
	}
}

type brokeWallet struct{ *Purse }

func (brokeWallet) Debit(int64) error { return bet.ErrInsufficientBalance }

// TestDebitFailure 外部錢包扣款失敗時，彩金池與連敗都不變
func TestDebitFailure(t *testing.T) {
	cfg := testConfig(t, 0, script(lose))
	cfg.Wallet = brokeWallet{NewPurse(1000)}
	s := newSession(t, cfg)
	pool := s.Pool().Amount()
	if _, err := s.RequestSpin(10); !errors.Is(err, bet.ErrInsufficientBalance) {
		t.Fatalf("debit failure: %v", err)
	}
	if !s.Pool().Amount().Equal(pool) || s.Streak().SpinCount != 0 || s.Phase() != Idle {
		t.Fatalf("state mutated after debit failure")
	}
}

func TestJackpotLogged(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(t, 1000, script([]float64{0.0}))
	cfg.Pool = testPool(t, 0)
	cfg.Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newSession(t, cfg)
	mustSpin(t, s, 10)
	if !strings.Contains(buf.String(), "jackpot awarded") {
		t.Fatalf("jackpot not logged: %s", buf.String())
	}
}

// TestConcurrentCallers 多個 goroutine 搶同一個 session：不是成功就是 ErrBusy，帳務一致
func TestConcurrentCallers(t *testing.T) {
	s := newSession(t, testConfig(t, 1_000_000, core.NewPCG64WithSeed(7)))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		spins   int
		payouts int64
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				res, err := s.RequestSpin(10)
				if err != nil {
					if !errors.Is(err, ErrBusy) {
						t.Errorf("unexpected error: %v", err)
					}
					continue
				}
				mu.Lock()
				spins++
				payouts += res.Payout
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if s.Streak().SpinCount != spins {
		t.Fatalf("spin count %d, successful spins %d", s.Streak().SpinCount, spins)
	}
	if want := 1_000_000 - int64(spins)*10 + payouts; s.Balance() != want {
		t.Fatalf("balance %d, want %d", s.Balance(), want)
	}
}

func TestNewSessionRejects(t *testing.T) {
	cfg := testConfig(t, 100, script(lose))
	cfg.JackpotSymbol = "Z"
	if _, err := NewSession(cfg); err == nil {
		t.Fatalf("unknown jackpot symbol accepted")
	}
	cfg = testConfig(t, 100, script(lose))
	cfg.Curve.Cap = 0.95
	if _, err := NewSession(cfg); err == nil {
		t.Fatalf("pity cap >= 0.9 accepted")
	}
	cfg = testConfig(t, 100, script(lose))
	cfg.Pool = nil
	if _, err := NewSession(cfg); err == nil {
		t.Fatalf("nil pool accepted")
	}
}

// TestSnapshotResumeReplays 還原快照後，之後的結果與快照當下接著轉完全相同
func TestSnapshotResumeReplays(t *testing.T) {
	cfg := testConfig(t, 1_000_000, core.NewPCG64WithSeed(42))
	s := newSession(t, cfg)
	for i := 0; i < 7; i++ {
		mustSpin(t, s, 10)
	}
	sn, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	first := make([]SpinResult, 20)
	for i := range first {
		first[i] = mustSpin(t, s, 10)
	}
	if err := s.Resume(sn); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s.Streak() != sn.Streak || s.Balance() != sn.Balance {
		t.Fatalf("after resume = %+v, want %+v", s.Settled(), sn)
	}
	for i := range first {
		got := mustSpin(t, s, 10)
		if !sameReels(got.Reels, first[i].Reels...) || got.Mode != first[i].Mode {
			t.Fatalf("spin %d diverged: %v/%v vs %v/%v", i, got.Reels, got.Mode, first[i].Reels, first[i].Mode)
		}
	}
}

// TestResumeAllOrNothing 亂數核心還原失敗時，連敗狀態維持原值
func TestResumeAllOrNothing(t *testing.T) {
	s := newSession(t, testConfig(t, 1000, core.NewPCG64WithSeed(7)))
	mustSpin(t, s, 10)
	before := s.Streak()

	bad := Snapshot{Streak: streak.State{ConsecutiveLosses: 3, SpinCount: 9}, Core: []byte("garbage")}
	if err := s.Resume(bad); err == nil {
		t.Fatalf("resume with corrupt core accepted")
	}
	if s.Streak() != before {
		t.Fatalf("streak changed on failed resume: %+v -> %+v", before, s.Streak())
	}
	if s.Phase() != Idle {
		t.Fatalf("phase = %v after failed resume", s.Phase())
	}

	bal := s.Balance()
	neg := Snapshot{Streak: before, Balance: -1}
	if err := s.Resume(neg); err == nil {
		t.Fatalf("negative balance accepted")
	}
	if s.Balance() != bal || s.Streak() != before {
		t.Fatalf("state changed on rejected resume: %+v", s.Settled())
	}
}

// phaseWallet 記錄 Reset 當下 session 的狀態
type phaseWallet struct {
	*Purse
	s       *Session
	atReset Phase
}

func (w *phaseWallet) Reset(balance int64) error {
	w.atReset = w.s.Phase()
	return w.Purse.Reset(balance)
}

// TestResumeResetsBalanceWhileHeld 餘額在 session 持有狀態時寫回，轉動無法插隊
func TestResumeResetsBalanceWhileHeld(t *testing.T) {
	w := &phaseWallet{Purse: NewPurse(1000), atReset: Idle}
	cfg := testConfig(t, 0, core.NewPCG64WithSeed(3))
	cfg.Wallet = w
	s := newSession(t, cfg)
	w.s = s
	mustSpin(t, s, 10)

	if err := s.Resume(Snapshot{Streak: streak.State{}, Balance: 777}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if w.atReset == Idle {
		t.Fatalf("balance reset outside the held phase")
	}
	if s.Balance() != 777 || w.Purse.Balance() != 777 {
		t.Fatalf("balance = %d / %d, want 777", s.Balance(), w.Purse.Balance())
	}
}

// TestSettledReadsDuringSpins 轉動中併發查詢只會讀到某一轉完整結算後的狀態
func TestSettledReadsDuringSpins(t *testing.T) {
	const spins = 2000
	s := newSession(t, testConfig(t, 1_000_000, core.NewPCG64WithSeed(11)))
	results := make([]SpinResult, spins+1)
	results[0] = SpinResult{Balance: s.Balance(), Streak: s.Streak()}

	var (
		wg   sync.WaitGroup
		seen []Settlement
		stop = make(chan struct{})
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := s.Settled()
			if p := s.PityChance(); p < 0 || p >= 1 {
				t.Errorf("pity chance %v out of range", p)
			}
			_ = s.Streak()
			_ = s.Balance()
			seen = append(seen, st)
		}
	}()
	for i := 1; i <= spins; i++ {
		results[i] = mustSpin(t, s, 10)
	}
	close(stop)
	wg.Wait()

	for _, st := range seen {
		n := st.Streak.SpinCount
		if n < 0 || n > spins {
			t.Fatalf("spin count %d out of range", n)
		}
		want := results[n]
		if st.Streak != want.Streak || st.Balance != want.Balance {
			t.Fatalf("read %+v, settled spin %d was streak=%+v balance=%d", st, n, want.Streak, want.Balance)
		}
	}
}

// TestZeroPayPartialIsLoss 兩連線取整後派彩為 0 時算未中獎，連敗照常累積
func TestZeroPayPartialIsLoss(t *testing.T) {
	cfg := testConfig(t, 1000, script([]float64{0.99, 0.99, 0.1, 0.1, 0.6}))
	cfg.Limits = bet.Limits{Min: 1, Max: 1000}
	cfg.Partial = calc.PartialRule{Enabled: true, Multiplier: 0.5}
	s := newSession(t, cfg)

	res := mustSpin(t, s, 1)
	if !sameReels(res.Reels, "A", "A", "B") {
		t.Fatalf("reels = %v", res.Reels)
	}
	if res.IsWin || res.WinType != calc.None || res.Payout != 0 || len(res.WinningPositions) != 0 {
		t.Fatalf("bet 1: win=%v type=%v payout=%d positions=%v", res.IsWin, res.WinType, res.Payout, res.WinningPositions)
	}
	if res.Streak.ConsecutiveLosses != 1 || s.Balance() != 999 {
		t.Fatalf("bet 1: streak=%+v balance=%d", res.Streak, s.Balance())
	}

	res = mustSpin(t, s, 2)
	if !res.IsWin || res.WinType != calc.Partial || res.Payout != 1 {
		t.Fatalf("bet 2: win=%v type=%v payout=%d", res.IsWin, res.WinType, res.Payout)
	}
	if res.Streak.ConsecutiveLosses != 0 {
		t.Fatalf("paying partial must reset losses: %+v", res.Streak)
	}
}
