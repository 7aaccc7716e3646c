package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// FitResult 卡方檢定結果
type FitResult struct {
	Stat   float64 `json:"Stat"`   // 卡方統計量
	DF     int     `json:"DF"`     // 自由度
	PValue float64 `json:"PValue"` // 右尾機率
	N      int     `json:"N"`      // 樣本數
}

// Reject 在顯著水準 alpha 下是否拒絕虛無假設
func (f FitResult) Reject(alpha float64) bool {
	return f.DF > 0 && f.PValue < alpha
}

// GoodnessOfFit 卡方適合度檢定：觀察次數 vs 理論機率。
//
// 理論機率為 0 的類別若有觀察值，直接回傳 PValue = 0；
// 理論機率為 0 且無觀察值的類別不計入自由度。
func GoodnessOfFit(observed []int, probs []float64) FitResult {
	n := 0
	for _, o := range observed {
		n += o
	}
	res := FitResult{N: n, PValue: 1}
	if n == 0 || len(observed) != len(probs) {
		return res
	}
	psum := 0.0
	for _, p := range probs {
		psum += p
	}
	k := 0
	for i, o := range observed {
		p := probs[i] / psum
		if p <= 0 {
			if o > 0 {
				res.PValue = 0
				return res
			}
			continue
		}
		e := p * float64(n)
		d := float64(o) - e
		res.Stat += d * d / e
		k++
	}
	res.DF = k - 1
	res.PValue = chiSurvival(res.Stat, res.DF)
	return res
}

// Independence 卡方獨立性檢定（列聯表）。
// table[i][j] 為第一維類別 i 與第二維類別 j 同時出現的次數；全零的列或欄會被忽略。
func Independence(table [][]int) FitResult {
	rows := len(table)
	if rows == 0 {
		return FitResult{PValue: 1}
	}
	cols := len(table[0])
	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	n := 0.0
	for i, row := range table {
		for j, v := range row {
			rowSum[i] += float64(v)
			colSum[j] += float64(v)
			n += float64(v)
		}
	}
	res := FitResult{N: int(n), PValue: 1}
	if n == 0 {
		return res
	}
	r, c := 0, 0
	for _, v := range rowSum {
		if v > 0 {
			r++
		}
	}
	for _, v := range colSum {
		if v > 0 {
			c++
		}
	}
	for i := range table {
		if rowSum[i] == 0 {
			continue
		}
		for j := range table[i] {
			if colSum[j] == 0 {
				continue
			}
			e := rowSum[i] * colSum[j] / n
			d := float64(table[i][j]) - e
			res.Stat += d * d / e
		}
	}
	res.DF = (r - 1) * (c - 1)
	res.PValue = chiSurvival(res.Stat, res.DF)
	return res
}

func chiSurvival(x float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	if math.IsNaN(x) {
		return 0
	}
	return distuv.ChiSquared{K: float64(df)}.Survival(x)
}
