package core

import (
	"encoding/binary"
	"math"

	"github.com/zintix-labs/reelkit/errs"
)

// Script 是一個「劇本式」亂數來源：依序回放預先指定的 [0,1) 數值，播完後從頭循環。
//
// 用途是讓測試可以精準控制每一次擲骰，例如：
//
//	core.NewScript(0.99, 0.0, 0.10, 0.50, 0.95)
//	// 第 1 次 Float64 -> 0.99（彩金判定失敗）
//	// 第 2 次 Float64 -> 0.0 （保底判定成功）...
//
// 所有取樣方法都只消耗一個腳本值：IntN(n) = floor(v*n)，Uint64 = v * 2^64。
type Script struct {
	vals []float64
	pos  int
}

// NewScript 建立腳本來源。數值會被夾到 [0, 1) 範圍內；空腳本視為單一個 0。
func NewScript(vals ...float64) *Script {
	if len(vals) == 0 {
		vals = []float64{0}
	}
	cp := make([]float64, len(vals))
	for i, v := range vals {
		cp[i] = clamp01(v)
	}
	return &Script{vals: cp}
}

func (s *Script) next() float64 {
	v := s.vals[s.pos]
	s.pos = (s.pos + 1) % len(s.vals)
	return v
}

// Consumed 回傳目前腳本的讀取位置（已循環時會歸零）。
func (s *Script) Consumed() int { return s.pos }

func (s *Script) Float64() float64 { return s.next() }

func (s *Script) Uint64() uint64 {
	return uint64(s.next() * (1 << 63) * 2)
}

func (s *Script) UintN(max uint) uint {
	if max == 0 {
		return 0
	}
	return min(uint(s.next()*float64(max)), max-1)
}

func (s *Script) IntN(max int) int {
	if max <= 0 {
		return -1
	}
	return min(int(s.next()*float64(max)), max-1)
}

// Snapshot 只保存讀取位置；腳本內容本身不會變動。
func (s *Script) Snapshot() ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(s.pos))
	return b, nil
}

func (s *Script) Restore(data []byte) error {
	if len(data) != 8 {
		return errs.NewFatal("script snapshot must be 8 bytes")
	}
	pos := int(binary.BigEndian.Uint64(data))
	if pos < 0 || pos >= len(s.vals) {
		return errs.Fatalf("script snapshot position %d out of range", pos)
	}
	s.pos = pos
	return nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}
