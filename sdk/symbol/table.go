// Package symbol 定義滾輪圖標目錄（Symbol Table）。
//
// 目錄在啟動時由設定檔建立，之後唯讀；查詢不存在的圖標屬於程式錯誤，直接 panic。
package symbol

import (
	"fmt"
	"math"
	"strings"

	"github.com/zintix-labs/reelkit/errs"
)

// ID 圖標代碼，例如 "CHERRY"、"SEVEN"
type ID string

// Symbol 單一圖標設定
type Symbol struct {
	ID         ID      `json:"id"         yaml:"id"`
	Weight     float64 `json:"weight"     yaml:"weight"`     // 相對出現權重
	Multiplier float64 `json:"multiplier" yaml:"multiplier"` // 三連線倍數
}

// Table 不可變的圖標目錄
type Table struct {
	symbols []Symbol
	index   map[ID]int
	total   float64
}

// New 建立圖標目錄，任何不合法的設定都回傳 errs.Fatal。
func New(symbols []Symbol) (*Table, error) {
	if len(symbols) == 0 {
		return nil, errs.NewFatal("symbol table is empty")
	}
	t := &Table{
		symbols: make([]Symbol, len(symbols)),
		index:   make(map[ID]int, len(symbols)),
	}
	for i, s := range symbols {
		s.ID = ID(strings.TrimSpace(string(s.ID)))
		if s.ID == "" {
			return nil, errs.Fatalf("symbol[%d]: empty id", i)
		}
		if _, dup := t.index[s.ID]; dup {
			return nil, errs.Fatalf("duplicate symbol id: %s", s.ID)
		}
		if math.IsNaN(s.Weight) || math.IsInf(s.Weight, 0) || s.Weight <= 0 {
			return nil, errs.Fatalf("symbol %s: weight must be positive, got %v", s.ID, s.Weight)
		}
		// 倍數 >= 1：三連線派彩 floor(bet*m) 才會隨下注額嚴格遞增
		if math.IsNaN(s.Multiplier) || math.IsInf(s.Multiplier, 0) || s.Multiplier < 1 {
			return nil, errs.Fatalf("symbol %s: line multiplier must be >= 1, got %v", s.ID, s.Multiplier)
		}
		t.symbols[i] = s
		t.index[s.ID] = i
		t.total += s.Weight
	}
	return t, nil
}

// MustNew 與 New 相同，失敗時 panic（測試與內嵌設定使用）。
func MustNew(symbols []Symbol) *Table {
	t, err := New(symbols)
	if err != nil {
		panic(err)
	}
	return t
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// All 依設定順序回傳所有圖標（複本）
func (t *Table) All() []Symbol {
	out := make([]Symbol, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// Len 圖標數量
func (t *Table) Len() int { return len(t.symbols) }

// Lookup 查詢圖標，不存在時回傳 false
func (t *Table) Lookup(id ID) (Symbol, bool) {
	i, ok := t.index[id]
	if !ok {
		return Symbol{}, false
	}
	return t.symbols[i], true
}

// Has 是否存在
func (t *Table) Has(id ID) bool {
	_, ok := t.index[id]
	return ok
}

// Index 回傳圖標在目錄中的位置，不存在時 panic
func (t *Table) Index(id ID) int {
	i, ok := t.index[id]
	if !ok {
		panic(fmt.Sprintf("symbol: unknown id %q", id))
	}
	return i
}

// At 依位置取圖標
func (t *Table) At(i int) Symbol { return t.symbols[i] }

// WeightOf 回傳權重，不存在時 panic
func (t *Table) WeightOf(id ID) float64 { return t.symbols[t.Index(id)].Weight }

// MultiplierOf 回傳三連線倍數，不存在時 panic
func (t *Table) MultiplierOf(id ID) float64 { return t.symbols[t.Index(id)].Multiplier }

// Weights 依設定順序回傳權重
func (t *Table) Weights() []float64 {
	w := make([]float64, len(t.symbols))
	for i, s := range t.symbols {
		w[i] = s.Weight
	}
	return w
}

// TotalWeight 權重總和
func (t *Table) TotalWeight() float64 { return t.total }

// Probability 單一滾輪抽到該圖標的機率
func (t *Table) Probability(id ID) float64 { return t.WeightOf(id) / t.total }

// LineProbability 純加權抽樣下三輪同圖標的機率 Σ p_i^3
func (t *Table) LineProbability() float64 {
	acc := 0.0
	for _, s := range t.symbols {
		p := s.Weight / t.total
		acc += p * p * p
	}
	return acc
}

// LineRtp 純加權抽樣下三連線的理論回報 Σ p_i^3 * mult_i（不含保底/彩金/部分連線）
func (t *Table) LineRtp() float64 {
	acc := 0.0
	for _, s := range t.symbols {
		p := s.Weight / t.total
		acc += p * p * p * s.Multiplier
	}
	return acc
}
