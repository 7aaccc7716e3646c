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

package stats

import (
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 所有區間估計使用 95% 信心水準
const confidence = 0.95

// ============================================================
// ** 結構宣告 **
// ============================================================

// EstimatorPlayers 多玩家模擬的體驗評估。
// 每位玩家是一個獨立樣本，比例一律附 Clopper–Pearson 區間，分位數附次序統計量區間。
type EstimatorPlayers struct {
	Players     int
	RtpStat     RtpStat
	StreakStat  StreakStat
	EventStat   EventStat
	SessionStat SessionStat
}

// RtpStat 玩家個人 RTP 分布
type RtpStat struct {
	ExpMedian PointStat
	ExpPerc   ExpPerc // 第 q 分位玩家的 RTP
	RtpPerc   RtpPerc // RTP 不超過門檻的玩家比例
}

type ExpPerc struct {
	ExpP10 PointStat
	ExpP33 PointStat
	ExpP67 PointStat
	ExpP90 PointStat
}

type RtpPerc struct {
	Rtp30  PointStat
	Rtp50  PointStat
	Rtp70  PointStat
	Rtp100 PointStat
}

// StreakStat 每位玩家的最長連敗。保底曲線調得好不好，看的是這裡的尾巴。
type StreakStat struct {
	Median PointStat
	P90    PointStat
	Max    int
}

// PointStat 點估計與信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// EventStat 每位玩家遇到特定事件的次數分布
type EventStat struct {
	Jackpot EventCount // 中彩金
	Forced  EventCount // 觸發保底
	Bucket  BucketEvent
}

// EventCount 事件發生 0 / 1 / 2 / 3 次以上的玩家比例
type EventCount struct {
	Zero PointStat
	One  PointStat
	Two  PointStat
	More PointStat
}

// BucketEvent 各贏分倍數區間的事件分布，Labels 與 Counts 一一對應
type BucketEvent struct {
	Labels []string
	Counts []EventCount
}

// SessionStat 玩家離場原因
type SessionStat struct {
	Bust    PointStat // 破產
	Cashout PointStat // 贏到離場線
	Alive   PointStat // 轉完仍在場
}

// ============================================================
// ** 以下公開方法 **
// ============================================================

// EstimatorPlayerExp 由每位玩家的報表估計整體體驗
func EstimatorPlayerExp(sts []*StatReport) *EstimatorPlayers {
	n := len(sts)
	out := &EstimatorPlayers{Players: n}
	if n == 0 {
		return out
	}

	rtp := sortedBy(sts, func(s *StatReport) float64 { return s.Rtp() })
	out.RtpStat = RtpStat{
		ExpMedian: rtp.quantile(0.5),
		ExpPerc: ExpPerc{
			ExpP10: rtp.quantile(0.10),
			ExpP33: rtp.quantile(1.0 / 3.0),
			ExpP67: rtp.quantile(2.0 / 3.0),
			ExpP90: rtp.quantile(0.90),
		},
		RtpPerc: RtpPerc{
			Rtp30:  rtp.atMost(0.30),
			Rtp50:  rtp.atMost(0.50),
			Rtp70:  rtp.atMost(0.70),
			Rtp100: rtp.atMost(1.00),
		},
	}

	streak := sortedBy(sts, func(s *StatReport) float64 { return float64(s.Summary.MaxLossStreak) })
	out.StreakStat = StreakStat{
		Median: streak.quantile(0.5),
		P90:    streak.quantile(0.9),
		Max:    int(streak[n-1]),
	}

	out.EventStat.Jackpot = countEvents(sts, func(s *StatReport) int { return s.Summary.JackpotHits })
	out.EventStat.Forced = countEvents(sts, func(s *StatReport) int { return s.Summary.ForcedWins })
	labels := Buckets.WinBucketStr()
	out.EventStat.Bucket = BucketEvent{Labels: labels, Counts: make([]EventCount, len(labels))}
	for i := range labels {
		out.EventStat.Bucket.Counts[i] = countEvents(sts, func(s *StatReport) int {
			if i < len(s.Dist.TotalWinCollect) {
				return s.Dist.TotalWinCollect[i]
			}
			return 0
		})
	}

	var bust, cashout, alive int
	for _, s := range sts {
		switch {
		case s.Player.Bust:
			bust++
		case s.Player.Cashout:
			cashout++
		case s.Player.Alive:
			alive++
		}
	}
	out.SessionStat = SessionStat{Bust: share(bust, n), Cashout: share(cashout, n), Alive: share(alive, n)}
	return out
}

// WriteText 以表格寫出
func (est *EstimatorPlayers) WriteText(w io.Writer) error {
	r := est.RtpStat
	rtp := newTable(fmt.Sprintf("Player RTP (%d players)", est.Players)).
		add("Median", fmtPoint(r.ExpMedian)).
		add("P10", fmtPoint(r.ExpPerc.ExpP10)).
		add("P33", fmtPoint(r.ExpPerc.ExpP33)).
		add("P67", fmtPoint(r.ExpPerc.ExpP67)).
		add("P90", fmtPoint(r.ExpPerc.ExpP90)).
		add("RTP <= 30%", fmtPoint(r.RtpPerc.Rtp30)).
		add("RTP <= 50%", fmtPoint(r.RtpPerc.Rtp50)).
		add("RTP <= 70%", fmtPoint(r.RtpPerc.Rtp70)).
		add("RTP <= 100%", fmtPoint(r.RtpPerc.Rtp100))

	sk := est.StreakStat
	streak := newTable("Longest Loss Streak").
		add("Median", fmt.Sprintf("%.0f [%.0f, %.0f]", sk.Median.Hat, sk.Median.CI.Lo, sk.Median.CI.Hi)).
		add("P90", fmt.Sprintf("%.0f [%.0f, %.0f]", sk.P90.Hat, sk.P90.CI.Lo, sk.P90.CI.Hi)).
		add("Max", fmt.Sprint(sk.Max))

	ev := newTable("Events per Player (0x | 1x | 2x | 3+x)").
		add("Jackpot", fmtEvents(est.EventStat.Jackpot)).
		add("Pity Forced", fmtEvents(est.EventStat.Forced))
	for i, label := range est.EventStat.Bucket.Labels {
		ev.add("Win "+label, fmtEvents(est.EventStat.Bucket.Counts[i]))
	}

	ss := est.SessionStat
	sess := newTable("Session Outcome").
		add("Bust", fmtPoint(ss.Bust)).
		add("Cashout", fmtPoint(ss.Cashout)).
		add("Alive", fmtPoint(ss.Alive))

	for _, t := range []*table{rtp, streak, ev, sess} {
		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// ** 內部方法 **
// ============================================================

// sample 已排序的玩家樣本
type sample []float64

func sortedBy(sts []*StatReport, f func(*StatReport) float64) sample {
	x := make(sample, len(sts))
	for i, s := range sts {
		x[i] = f(s)
	}
	slices.Sort(x)
	return x
}

// quantile 經驗分位數。
// 區間：第 k 個次序統計量的秩 ~ Binomial(n, q)，先取 q 的 CP 區間再換回樣本值。
func (x sample) quantile(q float64) PointStat {
	n := len(x)
	hat := stat.Quantile(q, stat.Empirical, x, nil)
	if n < 2 {
		return PointStat{Hat: hat, CI: CI{Lo: hat, Hi: hat}}
	}
	k := min(max(int(q*float64(n)), 1), n-1)
	lo, hi := clopperPearson(k, n)
	li := min(max(int(lo*float64(n)), 0), n-1)
	ui := min(max(int(hi*float64(n))-1, 0), n-1)
	return PointStat{Hat: hat, CI: CI{Lo: x[li], Hi: x[ui]}}
}

// atMost 樣本值 <= v 的比例
func (x sample) atMost(v float64) PointStat {
	k := 0
	for _, f := range x {
		if f > v {
			break
		}
		k++
	}
	return share(k, len(x))
}

func countEvents(sts []*StatReport, count func(*StatReport) int) EventCount {
	var c [4]int
	for _, s := range sts {
		c[min(count(s), 3)]++
	}
	n := len(sts)
	return EventCount{Zero: share(c[0], n), One: share(c[1], n), Two: share(c[2], n), More: share(c[3], n)}
}

// share k/n 與其 Clopper–Pearson 區間
func share(k, n int) PointStat {
	if n == 0 {
		return PointStat{CI: CI{Lo: 0, Hi: 1}}
	}
	lo, hi := clopperPearson(k, n)
	return PointStat{Hat: float64(k) / float64(n), CI: CI{Lo: lo, Hi: hi}}
}

// clopperPearson 二項比例的精確區間，以 Beta 分位數計算
func clopperPearson(k, n int) (lo, hi float64) {
	alpha := 1 - confidence
	lo, hi = 0, 1
	if k > 0 {
		lo = distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}.Quantile(alpha / 2)
	}
	if k < n {
		hi = distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}.Quantile(1 - alpha/2)
	}
	return lo, hi
}

func fmtPoint(p PointStat) string {
	return fmt.Sprintf("%.2f%% [%.2f%%, %.2f%%]", 100*p.Hat, 100*p.CI.Lo, 100*p.CI.Hi)
}

func fmtEvents(ec EventCount) string {
	return fmt.Sprintf("%.1f%% | %.1f%% | %.1f%% | %.1f%%", 100*ec.Zero.Hat, 100*ec.One.Hat, 100*ec.Two.Hat, 100*ec.More.Hat)
}
