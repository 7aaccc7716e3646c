package stats

import (
	"sort"
	"sync"
)

// WinBuckets 贏分倍數分桶。
//
// 三輪遊戲的線獎倍數多落在 10 倍以內，彩金則在千倍以上，
// 因此低倍數切得細、高倍數只留兩桶：
//
//	[0,0], (0,1), [1,2), [2,5), [5,10), [10,20), [20,50), [50,100), [100,1000), [1000,+inf)
//
// 每個下注額的分桶邊界只建一次，可併發取用。
type WinBuckets struct {
	mu     sync.Mutex
	mults  []int
	labels []string
	byBet  map[int]*WinBucket
}

// WinBucket 單一下注額的贏分邊界
type WinBucket struct {
	edges []int // edges[i] = bet * mults[i+1]
}

// Buckets 全域分桶設定，請勿修改
var Buckets = &WinBuckets{
	mults:  []int{0, 1, 2, 5, 10, 20, 50, 100, 1000},
	labels: []string{"[0,0]", "(0,1)", "[1,2)", "[2,5)", "[5,10)", "[10,20)", "[20,50)", "[50,100)", "[100,1000)", "[1000,+inf)"},
	byBet:  make(map[int]*WinBucket),
}

// WinBucketStr 分桶標籤，長度等於桶數
func (b *WinBuckets) WinBucketStr() []string {
	return b.labels
}

// ForBet 取得指定下注額的分桶
func (b *WinBuckets) ForBet(bet int) *WinBucket {
	b.mu.Lock()
	defer b.mu.Unlock()
	if wb, ok := b.byBet[bet]; ok {
		return wb
	}
	edges := make([]int, len(b.mults)-1)
	for i, m := range b.mults[1:] {
		edges[i] = bet * m
	}
	wb := &WinBucket{edges: edges}
	b.byBet[bet] = wb
	return wb
}

// Index 回傳贏分所在的桶：0 分固定第 0 桶，其餘依倍數邊界二分搜尋
func (wb *WinBucket) Index(win int) int {
	if win <= 0 {
		return 0
	}
	return 1 + sort.SearchInts(wb.edges, win+1)
}
