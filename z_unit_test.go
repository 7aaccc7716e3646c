package reelkit

import (
	"context"
	"errors"
	"testing"

	"github.com/zintix-labs/reelkit/demo/demo_configs"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/bet"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/slot"
)

const (
	classicID = 1
	fruitsID  = 2
)

func newKit(t *testing.T) *Kit {
	t.Helper()
	k, err := NewAuto(core.Default(), Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("new kit: %v", err)
	}
	return k
}

func spinN(t *testing.T, m *Machine, n int, amount int64) []slot.SpinResult {
	t.Helper()
	out := make([]slot.SpinResult, n)
	for i := range out {
		res, err := m.Spin(amount)
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		out[i] = res
	}
	return out
}

func sameSpins(a, b []slot.SpinResult) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Mode != b[i].Mode || len(a[i].Reels) != len(b[i].Reels) {
			return false
		}
		for j := range a[i].Reels {
			if a[i].Reels[j] != b[i].Reels[j] {
				return false
			}
		}
	}
	return true
}

func TestNewAutoRegistersDemoGames(t *testing.T) {
	k := newKit(t)
	ids := k.IDs()
	if len(ids) != 2 || ids[0] != classicID || ids[1] != fruitsID {
		t.Fatalf("ids = %v", ids)
	}
	if e, ok := k.EntryByName(" FRUITS "); !ok || e.GID != fruitsID {
		t.Fatalf("entry by name = %+v %v", e, ok)
	}
	sum, err := k.Summary()
	if err != nil || len(sum) != 2 {
		t.Fatalf("summary: %v %v", sum, err)
	}
	if sum[0].JackpotSymbol != "C" || sum[0].Partial || !sum[1].Partial {
		t.Fatalf("summary content = %+v", sum)
	}
}

func TestKitRequiresInputs(t *testing.T) {
	if _, err := New(nil, Configs(demo_configs.FS)); err == nil {
		t.Fatalf("nil factory accepted")
	}
	if _, err := New(core.Default(), nil); err == nil {
		t.Fatalf("empty configs accepted")
	}
	k, err := New(core.Default(), Configs(demo_configs.FS))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := k.Setting(classicID); err == nil {
		t.Fatalf("setting before freeze accepted")
	}
}

func TestMachineDeterministic(t *testing.T) {
	a, err := newKit(t).NewMachineWithSeed(classicID, 100_000, 99)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	b, err := newKit(t).NewMachineWithSeed(classicID, 100_000, 99)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	if !sameSpins(spinN(t, a, 200, 10), spinN(t, b, 200, 10)) {
		t.Fatalf("same seed produced different outcomes")
	}
	if a.Balance() != b.Balance() {
		t.Fatalf("balances differ: %d vs %d", a.Balance(), b.Balance())
	}
}

func TestMachinesShareKitPool(t *testing.T) {
	k := newKit(t)
	a, _ := k.NewMachineWithSeed(classicID, 1000, 1)
	b, _ := k.NewMachineWithSeed(classicID, 1000, 2)
	c, _ := k.NewMachineWithSeed(fruitsID, 1000, 3)
	if a.Session().Pool() != b.Session().Pool() {
		t.Fatalf("same game machines must share a pool")
	}
	if a.Session().Pool() == c.Session().Pool() {
		t.Fatalf("different games must not share a pool")
	}
	before := a.Session().Pool().Amount()
	spinN(t, b, 1, 100)
	if !a.Session().Pool().Amount().GreaterThan(before) {
		t.Fatalf("contribution from b not visible to a")
	}
}

func TestMachineRejectLeavesBalance(t *testing.T) {
	m, err := newKit(t).NewMachineWithSeed(classicID, 50, 5)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	_, err = m.Spin(60)
	if bet.Reason(err) != bet.CodeAboveMaximum {
		t.Fatalf("reason = %q (%v)", bet.Reason(err), err)
	}
	if m.Balance() != 50 {
		t.Fatalf("balance changed on reject: %d", m.Balance())
	}
}

func TestCheckpointResume(t *testing.T) {
	k := newKit(t)
	m, err := k.NewMachineWithSeed(classicID, 10_000, 123)
	if err != nil {
		t.Fatalf("machine: %v", err)
	}
	spinN(t, m, 15, 10)
	cp, err := m.Checkpoint()
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	bal := m.Balance()
	streak := m.Session().Streak()

	after := spinN(t, m, 30, 10)
	if err := m.Resume(cp); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if m.Balance() != bal || m.Session().Streak() != streak {
		t.Fatalf("state not restored: balance %d/%d streak %+v/%+v", m.Balance(), bal, m.Session().Streak(), streak)
	}
	if !sameSpins(after, spinN(t, m, 30, 10)) {
		t.Fatalf("outcomes diverged after resume")
	}

	// 換到另一台同款機台也能接續
	other, _ := k.NewMachineWithSeed(classicID, 1, 777)
	if err := other.Resume(cp); err != nil {
		t.Fatalf("resume on other machine: %v", err)
	}
	if other.Balance() != bal || other.InitSeed() != 123 {
		t.Fatalf("other machine = balance %d seed %d", other.Balance(), other.InitSeed())
	}
}

func TestResumeRejects(t *testing.T) {
	k := newKit(t)
	classic, _ := k.NewMachineWithSeed(classicID, 1000, 1)
	fruits, _ := k.NewMachineWithSeed(fruitsID, 1000, 2)
	cp, err := classic.Checkpoint()
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if err := fruits.Resume(cp); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("cross game resume err = %v", err)
	}
	if err := fruits.Resume([]byte("not zstd")); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("garbage resume err = %v", err)
	}
	if fruits.Balance() != 1000 {
		t.Fatalf("failed resume changed balance: %d", fruits.Balance())
	}
}

func TestRuntimeLifecycle(t *testing.T) {
	rt, err := newKit(t).BuildRuntime(RuntimeOptions{MaxSessions: 2})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	ctx := context.Background()
	seed := int64(8)
	sid, m, err := rt.Open(ctx, fruitsID, 500, &seed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if m.InitSeed() != 8 || m.GameID() != fruitsID {
		t.Fatalf("machine = seed %d gid %d", m.InitSeed(), m.GameID())
	}
	res, err := rt.Spin(ctx, sid, 5)
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if res.Bet != 5 || res.Balance != m.Balance() {
		t.Fatalf("spin result = %+v", res)
	}
	if _, _, err := rt.Open(ctx, 404, 500, nil); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("unknown game err = %v", err)
	}

	// 超過上限時淘汰最久未使用者
	s2, _, _ := rt.Open(ctx, classicID, 100, nil)
	s3, _, _ := rt.Open(ctx, classicID, 100, nil)
	if rt.Len() != 2 {
		t.Fatalf("len = %d", rt.Len())
	}
	if _, err := rt.Get(sid); errs.CodeOf(err) != errs.CodeNotFound {
		t.Fatalf("evicted session still present: %v", err)
	}
	if !rt.Delete(s2) || rt.Delete(s2) {
		t.Fatalf("delete must succeed exactly once")
	}

	rt.Close()
	rt.Close()
	if !rt.Closed() {
		t.Fatalf("closed = false")
	}
	if _, err := rt.Spin(ctx, s3, 10); errs.CodeOf(err) != errs.CodeUnavailable {
		t.Fatalf("spin after close err = %v", err)
	}
}

func TestRuntimeContextCanceled(t *testing.T) {
	rt, err := newKit(t).BuildRuntime(RuntimeOptions{})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	defer rt.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := rt.Open(ctx, classicID, 100, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("open with canceled ctx err = %v", err)
	}
}

func TestSimDeterministic(t *testing.T) {
	k := newKit(t)
	run := func() int {
		s, err := k.NewSimulatorWithSeed(classicID, 2024)
		if err != nil {
			t.Fatalf("simulator: %v", err)
		}
		st, _, err := s.Sim(10, 20_000, false)
		if err != nil {
			t.Fatalf("sim: %v", err)
		}
		if st.Summary.Rounds != 20_000 || st.Summary.TotalBet != 200_000 {
			t.Fatalf("summary = %+v", st.Summary)
		}
		return st.Summary.TotalWin
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("same seed different total win: %d vs %d", a, b)
	}
}

func TestSimUsesOwnPool(t *testing.T) {
	k := newKit(t)
	live, err := k.Pool(classicID)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	before := live.Amount()
	s, _ := k.NewSimulatorWithSeed(classicID, 1)
	if _, _, err := s.Sim(10, 1000, false); err != nil {
		t.Fatalf("sim: %v", err)
	}
	if !live.Amount().Equal(before) || s.Pool() == live {
		t.Fatalf("simulation touched the live pool")
	}
}

func TestSimMPAndPlayers(t *testing.T) {
	k := newKit(t)
	s, err := k.NewSimulatorWithSeed(fruitsID, 77)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	st, _, err := s.SimMP(5, 2000, 4, false)
	if err != nil {
		t.Fatalf("sim mp: %v", err)
	}
	if st.Summary.Rounds != 8000 {
		t.Fatalf("rounds = %d", st.Summary.Rounds)
	}
	if st.Summary.LineHits+st.Summary.PartialHits+st.Summary.JackpotHits+st.Summary.NoWinRounds != st.Summary.Rounds {
		t.Fatalf("win type counts do not add up: %+v", st.Summary)
	}

	st, est, _, err := s.SimPlayers(2, 50, 200, 5, 300, false)
	if err != nil {
		t.Fatalf("sim players: %v", err)
	}
	if est == nil || st.Summary.Rounds == 0 || st.Summary.Rounds > 50*300 {
		t.Fatalf("players report = %+v est=%v", st.Summary, est)
	}

	if _, _, err := s.Sim(0, 10, false); bet.Reason(err) != bet.CodeBelowMinimum {
		t.Fatalf("zero bet err = %v", err)
	}
	if _, _, err := s.SimMP(5, 10, 0, false); err == nil {
		t.Fatalf("zero workers accepted")
	}
}

func TestFitMatchesWeights(t *testing.T) {
	s, err := newKit(t).NewSimulatorWithSeed(fruitsID, 31)
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	rep, err := s.Fit(60_000)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	total := 0
	for _, o := range rep.Observed {
		total += o
	}
	if total != rep.Draws || len(rep.Symbols) != 5 {
		t.Fatalf("fit report = %+v", rep)
	}
	if rep.Distribution.Reject(1e-6) || rep.Independence.Reject(1e-6) {
		t.Fatalf("fit rejected: %+v %+v", rep.Distribution, rep.Independence)
	}
}

func TestSimulatorByYAML(t *testing.T) {
	k := newKit(t)
	adjusted := []byte(`
game_name: classic
game_id: 1
symbols:
  - {id: A, weight: 10, multiplier: 2}
  - {id: B, weight: 10, multiplier: 5}
  - {id: C, weight: 80, multiplier: 10}
jackpot_symbol: C
bet: {min: 10, max: 1000}
pity: {cap: 0.35, growth: 0.08}
jackpot:
  seed_amount: 50000
  contribution_rate: 0.01
  base_chance: 0.0002
  reference_bet: 10
  ceiling: 0.005
  min_spins: 5
`)
	s, err := k.NewSimulatorByYAML(adjusted, 3)
	if err != nil {
		t.Fatalf("by yaml: %v", err)
	}
	if _, _, err := s.Sim(10, 100, false); err != nil {
		t.Fatalf("sim: %v", err)
	}
	mismatch := []byte(`
game_name: fruits
game_id: 1
symbols:
  - {id: A, weight: 1, multiplier: 2}
jackpot_symbol: A
bet: {min: 1, max: 10}
pity: {cap: 0.1, growth: 0.1}
jackpot: {seed_amount: 0, contribution_rate: 0, base_chance: 0, reference_bet: 1, ceiling: 0, min_spins: 0}
`)
	if _, err := k.NewSimulatorByYAML(mismatch, 3); err == nil {
		t.Fatalf("mismatched id/name accepted")
	}
}
