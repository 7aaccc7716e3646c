// Package calc 負責中獎判定 (Win Evaluator) 與派彩計算 (Payout Calculator)。
package calc

import (
	"fmt"
	"math"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/reel"
	"github.com/zintix-labs/reelkit/sdk/symbol"
)

// WinType 中獎類型。每一轉只會有一種。
type WinType uint8

const (
	None    WinType = iota // 未中獎
	Line                   // 三輪同圖標
	Partial                // 兩輪同圖標（需啟用 PartialRule）
	Jackpot                // 彩金
)

var winTypeName = [...]string{"none", "line", "partial", "jackpot"}

func (w WinType) String() string {
	if int(w) < len(winTypeName) {
		return winTypeName[w]
	}
	return fmt.Sprintf("wintype(%d)", uint8(w))
}

func (w WinType) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *WinType) UnmarshalText(b []byte) error {
	for i, s := range winTypeName {
		if s == string(b) {
			*w = WinType(i)
			return nil
		}
	}
	return errs.Warnf("unknown win type %q", string(b))
}

// PartialRule 兩輪同圖標的安慰獎規則。
// Multiplier 為固定倍數，與圖標無關，也與三連線倍數分開設定。
type PartialRule struct {
	Enabled    bool    `json:"enabled"    yaml:"enabled"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
}

// Valid 啟用時倍數必須為有限的非負數
func (r PartialRule) Valid() error {
	if !r.Enabled {
		return nil
	}
	if math.IsNaN(r.Multiplier) || math.IsInf(r.Multiplier, 0) || r.Multiplier < 0 {
		return errs.Fatalf("partial rule: multiplier %v must be non-negative", r.Multiplier)
	}
	return nil
}

// Evaluation 判定結果
type Evaluation struct {
	IsWin     bool
	WinType   WinType
	Symbol    symbol.ID // Line/Partial 的中獎圖標；Jackpot 為彩金圖標
	Positions []int     // 中獎滾輪索引，未中獎為空
}

// Evaluate 依優先序判定：彩金路徑 > 三連線 > 兩連線(選用) > 未中獎
func Evaluate(o reel.Outcome, viaJackpot bool, rule PartialRule) Evaluation {
	if viaJackpot {
		return Evaluation{IsWin: true, WinType: Jackpot, Symbol: o[0], Positions: []int{0, 1, 2}}
	}
	if o[0] == o[1] && o[1] == o[2] {
		return Evaluation{IsWin: true, WinType: Line, Symbol: o[0], Positions: []int{0, 1, 2}}
	}
	if rule.Enabled {
		switch {
		case o[0] == o[1]:
			return Evaluation{IsWin: true, WinType: Partial, Symbol: o[0], Positions: []int{0, 1}}
		case o[1] == o[2]:
			return Evaluation{IsWin: true, WinType: Partial, Symbol: o[1], Positions: []int{1, 2}}
		case o[0] == o[2]:
			return Evaluation{IsWin: true, WinType: Partial, Symbol: o[0], Positions: []int{0, 2}}
		}
	}
	return Evaluation{WinType: None, Positions: []int{}}
}
