// Package core 引擎的亂數核心。
//
// 所有會擲骰的元件（滾輪抽樣、保底、彩金）只透過 PRNG 取用亂數；
// 正式環境用 PCG64，測試可注入固定種子或 Script 腳本得到可重現的序列。
package core

import (
	"crypto/rand"
	"encoding/binary"
	"math"
)

// RAND 取樣能力。UintN(0) 回傳 0；IntN(n<=0) 回傳 -1。
type RAND interface {
	Uint64() uint64
	Float64() float64 // [0,1)
	UintN(uint) uint
	IntN(int) int
}

// Restorable 內部狀態可序列化後還原，session checkpoint 依賴它
type Restorable interface {
	Snapshot() ([]byte, error)
	Restore([]byte) error
}

type PRNG interface {
	RAND
	Restorable
}

// PRNGFactory 同一實作下，相同 seed 必定得到相同序列
type PRNGFactory interface {
	New(seed int64) PRNG
}

// FactoryFunc 讓一般函式滿足 PRNGFactory
type FactoryFunc func(seed int64) PRNG

func (f FactoryFunc) New(seed int64) PRNG { return f(seed) }

// Default PCG64 工廠
func Default() PRNGFactory {
	return FactoryFunc(func(seed int64) PRNG { return NewPCG64WithSeed(seed) })
}

// Core 在 PRNG 上加常用取樣
type Core struct {
	PRNG
}

func New(rng PRNG) *Core { return &Core{PRNG: rng} }

// Chance 以機率 p 回傳 true，無論 p 為何都恰好消耗一次 Float64
func (c *Core) Chance(p float64) bool {
	x := c.Float64()
	return !math.IsNaN(p) && x < p
}

// NewSeed 由 crypto/rand 取得非負種子
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1), nil
}
