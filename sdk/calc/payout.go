package calc

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Payout 將判定結果換算成整數籌碼。
//
//   - None    -> 0
//   - Line    -> floor(bet * multiplier)，multiplier 為該圖標的三連線倍數
//   - Partial -> floor(bet * multiplier)，multiplier 為 PartialRule 的固定倍數
//   - Jackpot -> jackpotAmount（由彩金池 Award 取得，與下注額無關）
//
// 乘法以 decimal 計算，避免 100*0.29 這類二進位誤差在取整時少算一枚籌碼。
// 任何負值輸入或負值結果都是不變量被破壞，直接 panic。
func Payout(w WinType, bet int64, multiplier float64, jackpotAmount int64) int64 {
	if bet < 0 {
		panic(fmt.Sprintf("calc: negative bet %d", bet))
	}
	switch w {
	case None:
		return 0
	case Line, Partial:
		if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
			panic(fmt.Sprintf("calc: invalid multiplier %v", multiplier))
		}
		return decimal.NewFromInt(bet).Mul(decimal.NewFromFloat(multiplier)).Floor().IntPart()
	case Jackpot:
		if jackpotAmount < 0 {
			panic(fmt.Sprintf("calc: negative jackpot amount %d", jackpotAmount))
		}
		return jackpotAmount
	default:
		panic(fmt.Sprintf("calc: unknown win type %d", w))
	}
}
