// Package bet 下注驗證。純函數，失敗時不會改動任何狀態。
package bet

import (
	"fmt"

	"github.com/zintix-labs/reelkit/errs"
)

// 拒絕原因代碼（對外穩定）
const (
	CodeBelowMinimum        = "belowMinimum"
	CodeAboveMaximum        = "aboveMaximum"
	CodeInsufficientBalance = "insufficientBalance"
)

// 哨兵錯誤，可用 errors.Is 比對
var (
	ErrBelowMinimum        = errs.NewCode(errs.Warn, CodeBelowMinimum, "bet below minimum")
	ErrAboveMaximum        = errs.NewCode(errs.Warn, CodeAboveMaximum, "bet above maximum")
	ErrInsufficientBalance = errs.NewCode(errs.Warn, CodeInsufficientBalance, "insufficient balance")
)

// Limits 下注上下限
type Limits struct {
	Min int64 `json:"min" yaml:"min" validate:"gt=0"`
	Max int64 `json:"max" yaml:"max" validate:"gtefield=Min"`
}

// Valid 檢查 0 < Min <= Max
func (l Limits) Valid() error {
	if l.Min <= 0 {
		return errs.Fatalf("bet limits: min %d must be > 0", l.Min)
	}
	if l.Max < l.Min {
		return errs.Fatalf("bet limits: max %d must be >= min %d", l.Max, l.Min)
	}
	return nil
}

// EffectiveMax 實際可下注上限：min(Max, balance)
func (l Limits) EffectiveMax(balance int64) int64 {
	return min(l.Max, balance)
}

// Validate 檢查下注額，依序：
//
//  1. amount < Min                → belowMinimum
//  2. balance < Min               → insufficientBalance（連最低注都下不起）
//  3. amount > min(Max, balance)  → aboveMaximum
//
// 通過回傳 nil。回傳的錯誤皆為 errs.Warn，Code 為拒絕原因。
func Validate(amount, balance int64, l Limits) error {
	switch {
	case amount < l.Min:
		return reject(ErrBelowMinimum, amount, balance, l)
	case balance < l.Min:
		return reject(ErrInsufficientBalance, amount, balance, l)
	case amount > l.EffectiveMax(balance):
		return reject(ErrAboveMaximum, amount, balance, l)
	}
	return nil
}

// Reason 取出拒絕原因代碼，非下注拒絕回傳空字串
func Reason(err error) string {
	switch code := errs.CodeOf(err); code {
	case CodeBelowMinimum, CodeAboveMaximum, CodeInsufficientBalance:
		return code
	default:
		return ""
	}
}

func reject(sentinel *errs.E, amount, balance int64, l Limits) error {
	extra := fmt.Sprintf("bet=%d balance=%d min=%d max=%d", amount, balance, l.Min, l.Max)
	return errs.NewWithExtra(errs.Warn, sentinel.Message, extra).WithCode(sentinel.Code)
}
