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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/calc"
	"github.com/zintix-labs/reelkit/sdk/reel"
	"github.com/zintix-labs/reelkit/sdk/slot"
	"github.com/zintix-labs/reelkit/stats"
)

// SpinRecorder 遊戲紀錄員
//
// SpinRecorder 負責紀錄每一轉的 slot.SpinResult，並透過 Done 輸出統計報表。
// 非併發安全：每個 worker / 玩家各自持有一個，最後用 MergeSpinRecorder 合併。
type SpinRecorder struct {
	GameName    string
	GameId      uint
	Bet         int
	InitBalance int
	Basic       *BasicRecord
	Dist        *DistRecord
	Player      *PlayerRecord
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	TotalBet      int
	TotalWin      int
	LineWin       int
	PartialWin    int
	JackpotWin    int
	TotalWinSqSum int // 平方和
	LineHits      int
	PartialHits   int
	JackpotHits   int
	ForcedWins    int
	LossStreak    int // 目前連敗
	MaxLossStreak int
	Rounds        int
}

// DistRecord 分數區間落點統計
//
// 紀錄時紀錄int資訊
type DistRecord struct {
	Bucket          *stats.WinBucket
	TotalWinCollect []int
	LineSymbols     map[string]int
}

// PlayerRecord 玩家統計
type PlayerRecord struct {
	leaveLine   int
	InitBalance int
	Balance     int
	MaxBalance  int
	MinBalance  int
	Bust        bool
	Cashout     bool
	Alive       bool
}

// NewSpinRecorder 建立紀錄員。initBalance 為 0 表示不追蹤玩家資金。
func NewSpinRecorder(name string, id uint, bet int, initBalance int) (*SpinRecorder, error) {
	if bet <= 0 {
		return nil, errs.NewFatal(fmt.Sprintf("bet must be positive, got: %d", bet))
	}
	if initBalance < 0 {
		return nil, errs.NewFatal(fmt.Sprintf("init balance must not negative integer, got: %d", initBalance))
	}
	return &SpinRecorder{
		GameName:    name,
		GameId:      id,
		Bet:         bet,
		InitBalance: initBalance,
		Basic:       new(BasicRecord),
		Dist:        newDistRecord(bet),
		Player:      newPlayerRecord(initBalance),
	}, nil
}

// MergeSpinRecorder 合併多個紀錄員（同遊戲、同下注額）。
// 最長連敗取各紀錄員的最大值，不跨紀錄員接續計算。
func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge spin record err : empty recorders")
	}
	r0 := r[0]
	s, err := NewSpinRecorder(r0.GameName, r0.GameId, r0.Bet, r0.InitBalance)
	if err != nil {
		return nil, err
	}
	for _, v := range r {
		if v.GameName != r0.GameName || v.GameId != r0.GameId {
			return nil, errs.NewFatal("merge spin record err : different game")
		}
		if v.Bet != r0.Bet {
			return nil, errs.NewFatal("merge spin record err : different bet")
		}
		b := v.Basic
		s.Basic.TotalBet += b.TotalBet
		s.Basic.TotalWin += b.TotalWin
		s.Basic.LineWin += b.LineWin
		s.Basic.PartialWin += b.PartialWin
		s.Basic.JackpotWin += b.JackpotWin
		s.Basic.TotalWinSqSum += b.TotalWinSqSum
		s.Basic.LineHits += b.LineHits
		s.Basic.PartialHits += b.PartialHits
		s.Basic.JackpotHits += b.JackpotHits
		s.Basic.ForcedWins += b.ForcedWins
		s.Basic.MaxLossStreak = max(s.Basic.MaxLossStreak, b.MaxLossStreak)
		s.Basic.Rounds += b.Rounds

		for i := range v.Dist.TotalWinCollect {
			s.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
		}
		for sym, n := range v.Dist.LineSymbols {
			s.Dist.LineSymbols[sym] += n
		}
	}
	return s, nil
}

// Record 以單次 SpinResult 更新基本統計（不含玩家）
func (s *SpinRecorder) Record(sr *slot.SpinResult) {
	s.recordBasic(sr)
	s.recordDist(sr)
}

// RecordWithPlayer 在 Record 的基礎上，進一步更新玩家餘額／離場狀態，並回傳玩家是否停止遊戲。
func (s *SpinRecorder) RecordWithPlayer(sr *slot.SpinResult) bool {
	if s.Player.Balance < s.Bet {
		s.Player.Bust = true
		return true
	}
	s.recordBasic(sr)
	s.recordDist(sr)
	return s.recordPlayer(sr)
}

// Done 輸出統計報表
func (s *SpinRecorder) Done() *stats.StatReport {
	betf := float64(s.Bet)
	b := s.Basic
	rounds := float64(max(b.Rounds, 1))

	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:      s.GameName,
			GameId:        s.GameId,
			Bet:           s.Bet,
			TotalBet:      b.TotalBet,
			TotalWin:      b.TotalWin,
			LineWin:       b.LineWin,
			PartialWin:    b.PartialWin,
			JackpotWin:    b.JackpotWin,
			LineHits:      b.LineHits,
			PartialHits:   b.PartialHits,
			JackpotHits:   b.JackpotHits,
			JackpotRate:   float64(b.JackpotHits) / rounds,
			ForcedWins:    b.ForcedWins,
			NoWinRounds:   s.Dist.TotalWinCollect[0],
			HitRate:       1.0 - float64(s.Dist.TotalWinCollect[0])/rounds,
			MaxLossStreak: b.MaxLossStreak,
			Rounds:        b.Rounds,
		},
		Mult: &stats.MultReport{
			TotalWinMult:      float64(b.TotalWin) / betf,
			LineWinMult:       float64(b.LineWin) / betf,
			JackpotWinMult:    float64(b.JackpotWin) / betf,
			TotalWinMultSqSum: float64(b.TotalWinSqSum) / (betf * betf),
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: append([]int(nil), s.Dist.TotalWinCollect...),
			TotalWinDist:    make([]float64, len(s.Dist.TotalWinCollect)),
			LineSymbols:     make(map[string]int, len(s.Dist.LineSymbols)),
		},
		Player: &stats.PlayerReport{
			InitBalance: s.Player.InitBalance,
			Balance:     s.Player.Balance,
			MaxBalance:  s.Player.MaxBalance,
			MinBalance:  s.Player.MinBalance,
			Bust:        s.Player.Bust,
			Cashout:     s.Player.Cashout,
			Alive:       s.Player.Alive,
		},
	}
	for i, c := range report.Dist.TotalWinCollect {
		report.Dist.TotalWinDist[i] = float64(c) / rounds
	}
	for sym, n := range s.Dist.LineSymbols {
		report.Dist.LineSymbols[sym] = n
	}
	return report
}

func (s *SpinRecorder) recordBasic(res *slot.SpinResult) {
	b := s.Basic
	w := int(res.Payout)

	b.TotalBet += int(res.Bet)
	b.TotalWin += w
	b.TotalWinSqSum += w * w
	switch res.WinType {
	case calc.Line:
		b.LineWin += w
		b.LineHits++
	case calc.Partial:
		b.PartialWin += w
		b.PartialHits++
	case calc.Jackpot:
		b.JackpotWin += w
		b.JackpotHits++
	}
	if res.Mode == reel.ForcedLine {
		b.ForcedWins++
	}
	if res.IsWin {
		b.LossStreak = 0
	} else {
		b.LossStreak++
		b.MaxLossStreak = max(b.MaxLossStreak, b.LossStreak)
	}
	b.Rounds++
}

func (s *SpinRecorder) recordDist(res *slot.SpinResult) {
	d := s.Dist
	d.TotalWinCollect[d.Bucket.Index(int(res.Payout))]++
	if res.WinType == calc.Line {
		d.LineSymbols[string(res.Symbol)]++
	}
}

func (s *SpinRecorder) recordPlayer(sr *slot.SpinResult) bool {
	p := s.Player
	b := s.Bet

	// 更新資金
	p.Balance += int(sr.Payout) - b

	p.MaxBalance = max(p.MaxBalance, p.Balance)
	p.MinBalance = min(p.MinBalance, p.Balance)

	// 更新結局
	leave := false
	if p.Balance < b {
		p.Bust = true
		leave = true
	}
	if p.Balance >= p.leaveLine {
		p.Cashout = true
		leave = true
	}
	return leave
}

func newDistRecord(bet int) *DistRecord {
	return &DistRecord{
		Bucket:          stats.Buckets.ForBet(bet),
		TotalWinCollect: make([]int, len(stats.Buckets.WinBucketStr())),
		LineSymbols:     make(map[string]int),
	}
}

func newPlayerRecord(initBalance int) *PlayerRecord {
	return &PlayerRecord{
		InitBalance: initBalance,
		Balance:     initBalance,
		MaxBalance:  initBalance,
		MinBalance:  initBalance,
		leaveLine:   3 * initBalance, // 離場條件：3倍本金
	}
}
