package recorder

import (
	"testing"

	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/sdk/reel"
	"github.com/zintix-labs/reelkit/sdk/slot"
	"github.com/zintix-labs/reelkit/sdk/symbol"
)

func res(w calc.WinType, payout int64, mode reel.Kind, sym string) *slot.SpinResult {
	return &slot.SpinResult{
		IsWin:   w != calc.None,
		WinType: w,
		Symbol:  symbol.ID(sym),
		Payout:  payout,
		Bet:     10,
		Mode:    mode,
	}
}

func TestRecordAndDone(t *testing.T) {
	r, err := NewSpinRecorder("classic", 1, 10, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	seq := []*slot.SpinResult{
		res(calc.None, 0, reel.Weighted, ""),
		res(calc.None, 0, reel.Weighted, ""),
		res(calc.None, 0, reel.Weighted, ""),
		res(calc.Line, 50, reel.ForcedLine, "B"),
		res(calc.None, 0, reel.Weighted, ""),
		res(calc.Jackpot, 50000, reel.JackpotLine, "C"),
		res(calc.Partial, 5, reel.Weighted, "A"),
	}
	for _, sr := range seq {
		r.Record(sr)
	}
	st := r.Done()
	s := st.Summary
	if s.Rounds != 7 || s.TotalBet != 70 || s.TotalWin != 50055 {
		t.Fatalf("summary = %+v", s)
	}
	if s.LineHits != 1 || s.JackpotHits != 1 || s.PartialHits != 1 || s.ForcedWins != 1 {
		t.Fatalf("hits = %+v", s)
	}
	if s.MaxLossStreak != 3 || s.NoWinRounds != 4 {
		t.Fatalf("streak/nowin = %d/%d", s.MaxLossStreak, s.NoWinRounds)
	}
	if st.Dist.LineSymbols["B"] != 1 {
		t.Fatalf("line symbols = %v", st.Dist.LineSymbols)
	}
}

func TestMerge(t *testing.T) {
	a, _ := NewSpinRecorder("classic", 1, 10, 0)
	b, _ := NewSpinRecorder("classic", 1, 10, 0)
	for range 5 {
		a.Record(res(calc.None, 0, reel.Weighted, ""))
	}
	b.Record(res(calc.Line, 20, reel.Weighted, "A"))
	b.Record(res(calc.None, 0, reel.Weighted, ""))

	m, err := MergeSpinRecorder([]*SpinRecorder{a, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Basic.Rounds != 7 || m.Basic.TotalWin != 20 || m.Basic.MaxLossStreak != 5 {
		t.Fatalf("merged = %+v", m.Basic)
	}

	c, _ := NewSpinRecorder("classic", 1, 20, 0)
	if _, err := MergeSpinRecorder([]*SpinRecorder{a, c}); err == nil {
		t.Fatalf("merge with different bet accepted")
	}
	if _, err := MergeSpinRecorder(nil); err == nil {
		t.Fatalf("merge empty accepted")
	}
}

func TestRecordWithPlayerLeaves(t *testing.T) {
	r, _ := NewSpinRecorder("classic", 1, 10, 20)
	if r.RecordWithPlayer(res(calc.None, 0, reel.Weighted, "")) {
		t.Fatalf("left with balance 10")
	}
	if !r.RecordWithPlayer(res(calc.None, 0, reel.Weighted, "")) || !r.Player.Bust {
		t.Fatalf("must bust at balance 0: %+v", r.Player)
	}

	w, _ := NewSpinRecorder("classic", 1, 10, 20)
	if !w.RecordWithPlayer(res(calc.Line, 100, reel.Weighted, "B")) || !w.Player.Cashout {
		t.Fatalf("must cash out at 3x: %+v", w.Player)
	}
	if w.Player.MaxBalance != 110 {
		t.Fatalf("max balance = %d", w.Player.MaxBalance)
	}

	if _, err := NewSpinRecorder("classic", 1, 0, 0); err == nil {
		t.Fatalf("zero bet accepted")
	}
}
