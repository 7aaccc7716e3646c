// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"math"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.UintN(10) != c2.UintN(10) {
		t.Fatalf("UintN mismatch")
	}
	if c1.Float64() != c2.Float64() {
		t.Fatalf("Float64 mismatch")
	}
}

func TestPCG64Bounds(t *testing.T) {
	c := New(NewPCG64WithSeed(42))
	if got := c.IntN(0); got != -1 {
		t.Fatalf("IntN(0) want -1, got %d", got)
	}
	if got := c.UintN(0); got != 0 {
		t.Fatalf("UintN(0) want 0, got %d", got)
	}
	for i := 0; i < 10000; i++ {
		f := c.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
		if n := c.IntN(7); n < 0 || n >= 7 {
			t.Fatalf("IntN out of range: %d", n)
		}
	}
}

// TestPCG64SnapshotRestore 快照後繼續抽樣，還原後應重播同一段序列
func TestPCG64SnapshotRestore(t *testing.T) {
	r := NewPCG64WithSeed(99)
	r.Uint64()
	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := []uint64{r.Uint64(), r.Uint64(), r.Uint64()}
	if err := r.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i, w := range want {
		if got := r.Uint64(); got != w {
			t.Fatalf("replay mismatch at %d: got %d want %d", i, got, w)
		}
	}
}

func TestCoreChance(t *testing.T) {
	c := New(Default().New(9))
	if c.Chance(math.NaN()) {
		t.Fatalf("Chance(NaN) must be false")
	}
	s := NewScript(0.3, 0.3)
	if sc := New(s); sc.Chance(-1) || s.Consumed() != 1 {
		t.Fatalf("Chance must consume exactly one draw")
	}
	seed, err := NewSeed()
	if err != nil || seed < 0 {
		t.Fatalf("seed = %d err = %v", seed, err)
	}
	for i := 0; i < 1000; i++ {
		if c.Chance(0) {
			t.Fatalf("Chance(0) must be false")
		}
		if !c.Chance(1) {
			t.Fatalf("Chance(1) must be true")
		}
	}
}

// TestScriptReplay 腳本依序回放並循環，各取樣方法都只消耗一個值
func TestScriptReplay(t *testing.T) {
	s := NewScript(0.25, 0.75, 2, -1)
	if got := s.Float64(); got != 0.25 {
		t.Fatalf("want 0.25, got %v", got)
	}
	if got := s.IntN(4); got != 3 {
		t.Fatalf("IntN(4) at 0.75 want 3, got %d", got)
	}
	if got := s.Float64(); got >= 1 {
		t.Fatalf("clamped value must be < 1, got %v", got)
	}
	if got := s.UintN(10); got != 0 {
		t.Fatalf("UintN at 0 want 0, got %d", got)
	}
	if got := s.Consumed(); got != 0 {
		t.Fatalf("script should wrap around, pos=%d", got)
	}
	if got := s.Float64(); got != 0.25 {
		t.Fatalf("want wrap to 0.25, got %v", got)
	}
}

func TestScriptSnapshotRestore(t *testing.T) {
	s := NewScript(0.1, 0.2, 0.3)
	s.Float64()
	snap, _ := s.Snapshot()
	a := s.Float64()
	if err := s.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b := s.Float64(); a != b {
		t.Fatalf("replay mismatch %v != %v", a, b)
	}
	if err := s.Restore([]byte{1}); err == nil {
		t.Fatalf("expected error for short snapshot")
	}
}
