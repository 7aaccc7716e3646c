package streak

import (
	"math"
	"testing"

	"github.com/zintix-labs/reelkit/sdk/core"
)

func newTracker(t *testing.T, c Curve, rng core.PRNG) *Tracker {
	t.Helper()
	tr, err := NewTracker(c, core.New(rng))
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	return tr
}

// TestPityBound 機率隨連敗單調不減，不超過 Cap，且永遠低於 MaxCap
func TestPityBound(t *testing.T) {
	c := Curve{Base: 0.01, Cap: 0.6, Growth: 0.1}
	prev := -1.0
	for n := 0; n <= 100000; n += 7 {
		p := c.Probability(n)
		if p < prev {
			t.Fatalf("probability decreased at %d: %v < %v", n, p, prev)
		}
		if p > c.Cap || p >= MaxCap {
			t.Fatalf("probability %v reached cap at %d", p, n)
		}
		prev = p
	}
	if got := c.Probability(0); got != c.Base {
		t.Fatalf("p(0) = %v, want base %v", got, c.Base)
	}
	if got := c.Probability(math.MaxInt32); got >= MaxCap {
		t.Fatalf("p(huge) = %v must stay < %v", got, MaxCap)
	}
}

func TestCurveValid(t *testing.T) {
	bad := []Curve{
		{Base: -0.1, Cap: 0.5, Growth: 1},
		{Base: 0.6, Cap: 0.5, Growth: 1},
		{Base: 0, Cap: 0.9, Growth: 1},
		{Base: 0, Cap: 0.95, Growth: 1},
		{Base: 0, Cap: 0.5, Growth: 0},
		{Base: 0, Cap: math.NaN(), Growth: 1},
	}
	for _, c := range bad {
		if err := c.Valid(); err == nil {
			t.Fatalf("expected invalid curve: %+v", c)
		}
	}
	if err := (Curve{Base: 0.02, Cap: 0.5, Growth: 0.2}).Valid(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestRecordResetsOnWin 十連敗後中獎，連敗歸零、轉數持續累加
func TestRecordResetsOnWin(t *testing.T) {
	tr := newTracker(t, Curve{Base: 0, Cap: 0.5, Growth: 0.1}, core.NewScript(0.5))
	for i := 0; i < 10; i++ {
		tr.Record(false)
	}
	if s := tr.State(); s.ConsecutiveLosses != 10 || s.SpinCount != 10 {
		t.Fatalf("after 10 losses got %+v", s)
	}
	tr.Record(true)
	if s := tr.State(); s.ConsecutiveLosses != 0 || s.SpinCount != 11 {
		t.Fatalf("after win got %+v", s)
	}
}

func TestShouldForceWinScripted(t *testing.T) {
	c := Curve{Base: 0, Cap: 0.5, Growth: 0.5}
	// p(0) = 0 -> 永遠 false；p(10) ~ 0.4966
	tr := newTracker(t, c, core.NewScript(0.0, 0.3, 0.49))
	if tr.ShouldForceWin(0) {
		t.Fatalf("base 0 must never force")
	}
	if !tr.ShouldForceWin(10) {
		t.Fatalf("0.3 < p(10) must force")
	}
	if !tr.ShouldForceWin(10) {
		t.Fatalf("0.49 < p(10) must force")
	}
}

// TestForceRateMatchesCurve 大量擲骰時觸發率接近曲線值
func TestForceRateMatchesCurve(t *testing.T) {
	c := Curve{Base: 0.05, Cap: 0.5, Growth: 0.2}
	tr := newTracker(t, c, core.Default().New(31))
	n := 100000
	hits := 0
	for i := 0; i < n; i++ {
		if tr.ShouldForceWin(5) {
			hits++
		}
	}
	want := c.Probability(5)
	if got := float64(hits) / float64(n); math.Abs(got-want) > 0.01 {
		t.Fatalf("force rate %v, want ~%v", got, want)
	}
}

func TestRestore(t *testing.T) {
	tr := newTracker(t, Curve{Cap: 0.5, Growth: 1}, core.NewScript(0))
	if err := tr.Restore(State{ConsecutiveLosses: 3, SpinCount: 2}); err == nil {
		t.Fatalf("losses > spins must be rejected")
	}
	if err := tr.Restore(State{ConsecutiveLosses: 3, SpinCount: 9}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if tr.State().SpinCount != 9 {
		t.Fatalf("restore not applied")
	}
}
