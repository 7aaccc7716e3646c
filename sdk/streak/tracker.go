// Package streak 追蹤連敗與轉數，並依連敗數決定是否觸發保底（pity）。
package streak

import (
	"math"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
)

// MaxCap 保底機率上限的上限，設定值必須嚴格小於它
const MaxCap = 0.9

// State 玩家連敗狀態，由 session 擁有
type State struct {
	ConsecutiveLosses int `json:"consecutive_losses"`
	SpinCount         int `json:"spin_count"`
}

// Curve 保底機率曲線
//
//	p(n) = Base + (Cap - Base) * (1 - e^(-Growth*n))
//
// n = 連敗次數。p(0) = Base，隨 n 單調遞增並漸近 Cap，不會超過 Cap (< MaxCap)。
type Curve struct {
	Base   float64 `json:"base"   yaml:"base"`
	Cap    float64 `json:"cap"    yaml:"cap"`
	Growth float64 `json:"growth" yaml:"growth"`
}

// Valid 檢查 0 <= Base <= Cap < MaxCap 且 Growth > 0
func (c Curve) Valid() error {
	for _, v := range []float64{c.Base, c.Cap, c.Growth} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.NewFatal("pity curve: parameters must be finite")
		}
	}
	if c.Base < 0 || c.Base > c.Cap {
		return errs.Fatalf("pity curve: base %v must be in [0, cap=%v]", c.Base, c.Cap)
	}
	if c.Cap >= MaxCap {
		return errs.Fatalf("pity curve: cap %v must be < %v", c.Cap, MaxCap)
	}
	if c.Growth <= 0 {
		return errs.Fatalf("pity curve: growth %v must be > 0", c.Growth)
	}
	return nil
}

// Probability 連敗 losses 次時的保底機率
func (c Curve) Probability(losses int) float64 {
	if losses <= 0 {
		return c.Base
	}
	p := c.Base + (c.Cap-c.Base)*(-math.Expm1(-c.Growth*float64(losses)))
	return min(p, c.Cap)
}

// Tracker 連敗追蹤器
type Tracker struct {
	curve Curve
	core  *core.Core
	state State
}

// NewTracker 建立追蹤器
func NewTracker(curve Curve, c *core.Core) (*Tracker, error) {
	if err := curve.Valid(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errs.NewFatal("streak: random core is required")
	}
	return &Tracker{curve: curve, core: c}, nil
}

// Probability 依曲線計算保底機率
func (t *Tracker) Probability(losses int) float64 { return t.curve.Probability(losses) }

// ShouldForceWin 擲骰決定本轉是否強制中獎，固定消耗一次亂數
func (t *Tracker) ShouldForceWin(losses int) bool {
	return t.core.Chance(t.curve.Probability(losses))
}

// Record 結算一轉：中獎歸零連敗，否則 +1；轉數一律 +1
func (t *Tracker) Record(win bool) {
	if win {
		t.state.ConsecutiveLosses = 0
	} else {
		t.state.ConsecutiveLosses++
	}
	t.state.SpinCount++
}

// State 目前狀態（值複本）
func (t *Tracker) State() State { return t.state }

// Restore 還原狀態（例如外部持久化在 session 開始時帶回）
func (t *Tracker) Restore(s State) error {
	if s.ConsecutiveLosses < 0 || s.SpinCount < 0 || s.ConsecutiveLosses > s.SpinCount {
		return errs.Warnf("streak: invalid state %+v", s)
	}
	t.state = s
	return nil
}

// Curve 使用中的曲線
func (t *Tracker) Curve() Curve { return t.curve }
