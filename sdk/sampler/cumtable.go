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

// Package sampler 提供滾輪使用的加權抽樣工具。
//
// 本檔案 (cumtable.go) 實作累積權重表 (Cumulative Table) 抽樣：
//
//   - 建表：對權重做前綴和，cum[i] = w[0] + ... + w[i]。
//   - 抽樣：取 r ∈ [0, total)，回傳第一個 cum[i] > r 的索引（二分搜尋）。
//
// 特性：
//   - 建表 O(n)，抽樣 O(log n)，空間 O(n)。
//   - 權重可為整數或浮點數，總和大小不影響記憶體。
//   - 每次 Pick 只消耗一次 Float64，便於以腳本亂數回放。
package sampler

import (
	"fmt"
	"math"
	"sort"

	"github.com/zintix-labs/reelkit/sdk/core"
)

// CumTable 累積權重表
//
// 舉例：權重 [50, 30, 20] -> cum = [50, 80, 100], total = 100
//
//	r ∈ [0,50)   -> 0
//	r ∈ [50,80)  -> 1
//	r ∈ [80,100) -> 2
//
// 權重為 0 的項目其區間長度為 0，永遠不會被選中。
type CumTable struct {
	cum   []float64
	total float64
}

// BuildCumTable 根據權重列表建立累積表。
//
// 負權重、NaN/Inf、全部為零都屬於設定錯誤，直接 panic。
func BuildCumTable[T Weight](src []T) *CumTable {
	if len(src) == 0 {
		panic("cumtable: empty weights")
	}
	cum := make([]float64, len(src))
	acc := 0.0
	for i, v := range src {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			panic(fmt.Sprintf("cumtable: weight[%d] is not finite", i))
		}
		if f < 0 {
			panic("cumtable: negative value encountered")
		}
		acc += f
		cum[i] = acc
	}
	if acc <= 0 {
		panic("cumtable: all weights are zero")
	}
	if math.IsInf(acc, 0) {
		panic("cumtable: total weight overflow")
	}
	return &CumTable{cum: cum, total: acc}
}

// Len 回傳項目數量
func (t *CumTable) Len() int { return len(t.cum) }

// Total 回傳權重總和
func (t *CumTable) Total() float64 { return t.total }

// Prob 回傳索引 i 的理論機率 w[i]/total
func (t *CumTable) Prob(i int) float64 {
	if i < 0 || i >= len(t.cum) {
		return 0
	}
	prev := 0.0
	if i > 0 {
		prev = t.cum[i-1]
	}
	return (t.cum[i] - prev) / t.total
}

// Pick 以 Core 的 RNG 抽一個索引
func (t *CumTable) Pick(c *core.Core) int {
	return t.Locate(c.Float64() * t.total)
}

// Locate 回傳第一個累積權重「嚴格大於」r 的索引。
// r 超出 [0,total) 時會被夾到邊界。
func (t *CumTable) Locate(r float64) int {
	if r < 0 {
		r = 0
	}
	idx := sort.Search(len(t.cum), func(i int) bool { return t.cum[i] > r })
	if idx >= len(t.cum) {
		// r 因浮點誤差落在 total 上，取最後一個非零權重的項目
		idx = len(t.cum) - 1
		for idx > 0 && t.cum[idx] == t.cum[idx-1] {
			idx--
		}
	}
	return idx
}
