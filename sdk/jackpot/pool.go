// Package jackpot 實作累積彩金池 (progressive jackpot pool)。
//
// 彩金池可以被多個 session 共用，所有讀寫都在同一把鎖內完成：
// Contribute 與 Award 互斥，派彩時不會讀到半更新的金額。
package jackpot

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/reelkit/errs"
)

// MaxCeiling 單轉彩金機率上限的上限 (0.5%)
const MaxCeiling = 0.005

// Odds 彩金觸發機率設定
//
//	chance = 0                                     , spinCount < MinSpins
//	chance = min(Ceiling, BaseChance*bet/RefBet)   , otherwise
type Odds struct {
	BaseChance   float64 `json:"base_chance"   yaml:"base_chance"`
	ReferenceBet int64   `json:"reference_bet" yaml:"reference_bet"`
	Ceiling      float64 `json:"ceiling"       yaml:"ceiling"`
	MinSpins     int     `json:"min_spins"     yaml:"min_spins"`
}

// Valid 檢查機率設定
func (o Odds) Valid() error {
	if math.IsNaN(o.BaseChance) || o.BaseChance < 0 || o.BaseChance > 1 {
		return errs.Fatalf("jackpot odds: base_chance %v must be in [0,1]", o.BaseChance)
	}
	if o.ReferenceBet <= 0 {
		return errs.Fatalf("jackpot odds: reference_bet %d must be > 0", o.ReferenceBet)
	}
	if math.IsNaN(o.Ceiling) || o.Ceiling < 0 || o.Ceiling > MaxCeiling {
		return errs.Fatalf("jackpot odds: ceiling %v must be in [0,%v]", o.Ceiling, MaxCeiling)
	}
	if o.MinSpins < 0 {
		return errs.Fatalf("jackpot odds: min_spins %d must be >= 0", o.MinSpins)
	}
	return nil
}

// Chance 計算本轉觸發彩金的機率
func (o Odds) Chance(bet int64, spinCount int) float64 {
	if bet <= 0 || spinCount < o.MinSpins {
		return 0
	}
	p := o.BaseChance * float64(bet) / float64(o.ReferenceBet)
	return min(p, o.Ceiling)
}

// Pool 彩金池
type Pool struct {
	mu      sync.Mutex
	current decimal.Decimal
	seed    decimal.Decimal
	rate    decimal.Decimal
	odds    Odds
	awards  int64
}

// NewPool 建立彩金池，初始金額為 seed。
// seed >= 0，rate ∈ [0,1)。
func NewPool(seed int64, rate float64, odds Odds) (*Pool, error) {
	if seed < 0 {
		return nil, errs.Fatalf("jackpot: seed amount %d must be >= 0", seed)
	}
	if math.IsNaN(rate) || rate < 0 || rate >= 1 {
		return nil, errs.Fatalf("jackpot: contribution rate %v must be in [0,1)", rate)
	}
	if err := odds.Valid(); err != nil {
		return nil, err
	}
	s := decimal.NewFromInt(seed)
	return &Pool{
		current: s,
		seed:    s,
		rate:    decimal.NewFromFloat(rate),
		odds:    odds,
	}, nil
}

// Contribute 每轉無條件注入 bet*rate
func (p *Pool) Contribute(bet int64) {
	if bet <= 0 {
		return
	}
	add := decimal.NewFromInt(bet).Mul(p.rate)
	p.mu.Lock()
	p.current = p.current.Add(add)
	p.mu.Unlock()
}

// Chance 本轉觸發機率
func (p *Pool) Chance(bet int64, spinCount int) float64 {
	return p.odds.Chance(bet, spinCount)
}

// Award 派彩：回傳目前金額（向下取整到整數籌碼），並重置為 seed。
// 小數部分隨重置捨去。
func (p *Pool) Award() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	amount := p.current.Floor().IntPart()
	p.current = p.seed
	p.awards++
	return amount
}

// Amount 目前金額
func (p *Pool) Amount() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Seed 重置金額
func (p *Pool) Seed() decimal.Decimal { return p.seed }

// Awards 累計派彩次數
func (p *Pool) Awards() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.awards
}

// Odds 觸發機率設定
func (p *Pool) Odds() Odds { return p.odds }

// Reseed 將目前金額設為指定值（外部持久化在 session 開始時帶回），不得低於 0
func (p *Pool) Reseed(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errs.Warnf("jackpot: reseed amount %s must be >= 0", amount)
	}
	p.mu.Lock()
	p.current = amount
	p.mu.Unlock()
	return nil
}
