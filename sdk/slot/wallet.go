package slot

import (
	"sync"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/bet"
)

// Wallet 玩家餘額。session 不擁有餘額，只在驗證前讀取、結算時寫回。
type Wallet interface {
	Balance() int64
	Debit(amount int64) error
	Credit(amount int64)
}

// Purse 記憶體錢包，可被 session 與查詢端同時讀取
type Purse struct {
	mu      sync.Mutex
	balance int64
}

func NewPurse(balance int64) *Purse {
	return &Purse{balance: max(balance, 0)}
}

func (p *Purse) Balance() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// Debit 扣款，不足時回傳 insufficientBalance
func (p *Purse) Debit(amount int64) error {
	if amount < 0 {
		return errs.Fatalf("purse: negative debit %d", amount)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount > p.balance {
		return errs.NewWithExtra(errs.Warn, bet.ErrInsufficientBalance.Message, "debit").
			WithCode(bet.CodeInsufficientBalance)
	}
	p.balance -= amount
	return nil
}

// Credit 入帳，負值是呼叫端錯誤
func (p *Purse) Credit(amount int64) {
	if amount < 0 {
		panic("purse: negative credit")
	}
	p.mu.Lock()
	p.balance += amount
	p.mu.Unlock()
}

// Reset 直接設定餘額（斷線重連時帶回外部保存的值）
func (p *Purse) Reset(balance int64) error {
	if balance < 0 {
		return errs.Warnf("purse: negative balance %d", balance)
	}
	p.mu.Lock()
	p.balance = balance
	p.mu.Unlock()
	return nil
}
