// Package reel 負責每一轉的三輪圖標生成 (Outcome Generator)。
package reel

import (
	"fmt"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/sampler"
	"github.com/zintix-labs/reelkit/sdk/symbol"
)

// Reels 滾輪數量
const Reels = 3

// Outcome 一轉的結果，依滾輪順序排列。值型別，建立後不再修改。
type Outcome [Reels]symbol.ID

// Symbols 回傳切片複本，方便序列化
func (o Outcome) Symbols() []symbol.ID {
	out := make([]symbol.ID, Reels)
	copy(out, o[:])
	return out
}

// Kind 生成模式
type Kind uint8

const (
	Weighted    Kind = iota // 每輪獨立加權抽樣
	ForcedLine              // 保底：三輪同一指定圖標
	JackpotLine             // 彩金：三輪皆為彩金圖標
)

var kindName = map[Kind]string{
	Weighted:    "weighted",
	ForcedLine:  "forced",
	JackpotLine: "jackpot",
}

func (k Kind) String() string {
	if s, ok := kindName[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText 讓模式以字串輸出到 JSON/YAML
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Mode 生成模式與其參數
type Mode struct {
	Kind   Kind
	Symbol symbol.ID // 僅 ForcedLine 使用
}

func NewWeighted() Mode               { return Mode{Kind: Weighted} }
func NewForcedLine(id symbol.ID) Mode { return Mode{Kind: ForcedLine, Symbol: id} }
func NewJackpotLine() Mode            { return Mode{Kind: JackpotLine} }

// Generator 圖標生成器
type Generator struct {
	table   *symbol.Table
	jackpot symbol.ID
	core    *core.Core
	reel    *sampler.CumTable // 單輪加權抽樣（所有圖標）
	forced  *sampler.CumTable // 保底圖標抽樣（排除彩金圖標）
	forceID []symbol.ID
}

// New 建立生成器。彩金圖標必須存在於目錄中。
func New(table *symbol.Table, jackpot symbol.ID, c *core.Core) (*Generator, error) {
	if table == nil {
		return nil, errs.NewFatal("reel: symbol table is required")
	}
	if c == nil {
		return nil, errs.NewFatal("reel: random core is required")
	}
	if !table.Has(jackpot) {
		return nil, errs.Fatalf("reel: jackpot symbol %q not in symbol table", jackpot)
	}
	g := &Generator{
		table:   table,
		jackpot: jackpot,
		core:    c,
		reel:    sampler.BuildCumTable(table.Weights()),
	}

	fw := make([]float64, 0, table.Len())
	for _, s := range table.All() {
		if s.ID == jackpot {
			continue
		}
		fw = append(fw, s.Weight)
		g.forceID = append(g.forceID, s.ID)
	}
	if len(fw) == 0 {
		// 目錄只有彩金圖標時，保底只能落在它身上
		fw = append(fw, 1)
		g.forceID = append(g.forceID, jackpot)
	}
	g.forced = sampler.BuildCumTable(fw)
	return g, nil
}

// Draw 依模式產生一轉結果
func (g *Generator) Draw(m Mode) Outcome {
	switch m.Kind {
	case Weighted:
		var o Outcome
		for i := range o {
			o[i] = g.DrawSymbol()
		}
		return o
	case ForcedLine:
		if !g.table.Has(m.Symbol) {
			panic(fmt.Sprintf("reel: forced line on unknown symbol %q", m.Symbol))
		}
		return Outcome{m.Symbol, m.Symbol, m.Symbol}
	case JackpotLine:
		return Outcome{g.jackpot, g.jackpot, g.jackpot}
	default:
		panic(fmt.Sprintf("reel: unknown draw mode %d", m.Kind))
	}
}

// DrawSymbol 單輪加權抽樣一次
func (g *Generator) DrawSymbol() symbol.ID {
	return g.table.At(g.reel.Pick(g.core)).ID
}

// PickForced 為保底挑選圖標：在非彩金圖標中依權重抽一次
func (g *Generator) PickForced() symbol.ID {
	return g.forceID[g.forced.Pick(g.core)]
}

// JackpotSymbol 彩金圖標
func (g *Generator) JackpotSymbol() symbol.ID { return g.jackpot }

// Table 圖標目錄
func (g *Generator) Table() *symbol.Table { return g.table }
