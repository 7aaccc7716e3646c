// Package core 提供引擎注入式的亂數來源，預設使用 PCG64。
//
// The PCG algorithm is designed by Melissa O'Neill; the generator itself is
// math/rand/v2's PCG.
package core

import r2 "math/rand/v2"

// PCG64 亂數產生器。
// src 保存可序列化的狀態，rnd 以 src 為來源提供無偏的 bounded 取樣。
type PCG64 struct {
	src *r2.PCG
	rnd *r2.Rand
}

// NewPCG64 以加密隨機 seed 建立
func NewPCG64() (*PCG64, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewPCG64WithSeed(seed), nil
}

// NewPCG64WithSeed 以 seed 建立。
// seed 經 splitmix64 展開成兩個 64-bit 狀態字，相鄰 seed（模擬器派生 1,2,3...）的序列互不相關。
func NewPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed)
	src := r2.NewPCG(splitmix64(x), splitmix64(^x))
	return &PCG64{src: src, rnd: r2.New(src)}
}

func (r *PCG64) Uint64() uint64 { return r.src.Uint64() }

// Float64 [0,1)，53 bits
func (r *PCG64) Float64() float64 { return r.rnd.Float64() }

// UintN [0,n)，n == 0 回傳 0
func (r *PCG64) UintN(n uint) uint {
	if n == 0 {
		return 0
	}
	return r.rnd.UintN(n)
}

// IntN [0,n)，n <= 0 回傳 -1
func (r *PCG64) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return r.rnd.IntN(n)
}

// Snapshot 序列化目前狀態（checkpoint 使用）
func (r *PCG64) Snapshot() ([]byte, error) { return r.src.MarshalBinary() }

// Restore 還原 Snapshot 的狀態
func (r *PCG64) Restore(data []byte) error { return r.src.UnmarshalBinary(data) }

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
