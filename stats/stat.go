package stats

import (
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/text/message"
)

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// StatReport 遊戲統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Mult    *MultReport    `json:"Mult"`
	Dist    *DistReport    `json:"Dist"`
	Player  *PlayerReport  `json:"Player,omitzero"`
	isDone  bool
}

type SummaryReport struct {
	GameName      string  `json:"GameName"`
	GameId        uint    `json:"GameId"`
	Bet           int     `json:"Bet"`
	TotalBet      int     `json:"TotalBet"`
	TotalWin      int     `json:"TotalWin"`
	LineWin       int     `json:"LineWin"`
	PartialWin    int     `json:"PartialWin"`
	JackpotWin    int     `json:"JackpotWin"`
	RTP           float64 `json:"RTP"`
	RtpCI         CI      `json:"RtpCI"`
	Std           float64 `json:"Std"`
	Cv            float64 `json:"Cv"`
	LineHits      int     `json:"LineHits"`
	PartialHits   int     `json:"PartialHits"`
	JackpotHits   int     `json:"JackpotHits"`
	JackpotRate   float64 `json:"JackpotRate"`
	ForcedWins    int     `json:"ForcedWins"` // 保底觸發次數
	NoWinRounds   int     `json:"NoWinRounds"`
	HitRate       float64 `json:"HitRate"`
	MaxLossStreak int     `json:"MaxLossStreak"`
	Rounds        int     `json:"Rounds"`
}

// MultReport 贏倍統計（以單注為 1 倍）
//
// 紀錄時不紀錄，避免轉型成本。紀錄完成後由 recorder 整理填入
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"`
	LineWinMult       float64 `json:"LineWinMult"`
	JackpotWinMult    float64 `json:"JackpotWinMult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum"` // 平方和
}

// DistReport 分數區間落點統計
type DistReport struct {
	WinBucket       []string       `json:"WinBucket"`
	TotalWinCollect []int          `json:"TotalWinCollect"`
	TotalWinDist    []float64      `json:"TotalWinDist"`
	LineSymbols     map[string]int `json:"LineSymbols,omitempty"` // 各圖標三連線次數
}

// PlayerReport 玩家統計
//
// 需使用PlayerRecord 才會統計
type PlayerReport struct {
	InitBalance int  `json:"InitBalance"`
	Balance     int  `json:"Balance"`
	MaxBalance  int  `json:"MaxBalance"`
	MinBalance  int  `json:"MinBalance"`
	Bust        bool `json:"Bust"`
	Cashout     bool `json:"Cashout"`
	Alive       bool `json:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 所有遊戲統計過程因為性能原因只處理int的紀錄，所以統計完成後
//
// 請使用 Done 來通知 Statistician 統計已經完成，可以一次性計算統計結果
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()

	// Player
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}

	s.isDone = true
}

// Rtp 回傳整體 RTP（總贏分 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet == 0 {
		return 0
	}
	return (float64(s.Summary.TotalWin) / float64(s.Summary.TotalBet))
}

// Std 回傳單局贏分的標準差（以投注單位為基礎）
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 || s.Summary.Bet == 0 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	winMultPow := s.Mult.TotalWinMult * s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - winMultPow/rounds) / (rounds - 1)

	if variance < 0 {
		variance = 0
	}

	std := math.Sqrt(variance)
	return std
}

// Cv 回傳單局贏分的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	std := s.Std()
	if rtp <= 0 {
		return 0
	}
	return (std / rtp)
}

// Ci 回傳(95% Rtp)信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	std := s.Std()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = std / math.Sqrt(float64(s.Summary.Rounds))
	}
	ci := CI{
		Lo: max(rtp-1.96*rtpSe, 0.0),
		Hi: rtp + 1.96*rtpSe,
	}
	return ci
}

// Write 計算衍生欄位後以 JSON / YAML 寫出
func (s *StatReport) Write(w io.Writer, f Format) error {
	s.Done()
	return Encode(w, f, s)
}

// WriteText 以表格寫出，used 為模擬耗時（<= 0 不輸出速度）
func (s *StatReport) WriteText(w io.Writer, used time.Duration) error {
	s.Done()
	p := message.NewPrinter(lang)
	if used > 0 {
		p.Fprintf(w, "used: %s\nsps : %d spins/sec\n",
			used.Round(10*time.Millisecond), int(float64(s.Summary.Rounds)/used.Seconds()))
	}
	sm := s.Summary
	t := newTable(sm.GameName).
		add("Game ID", fmt.Sprint(sm.GameId)).
		add("Bet", p.Sprintf("%d", sm.Bet)).
		add("Total Rounds", p.Sprintf("%d", sm.Rounds)).
		add("Total RTP", p.Sprintf("%.2f %%", 100*sm.RTP)).
		add("RTP 95% CI", p.Sprintf("[%.2f%%, %.2f%%]", 100*sm.RtpCI.Lo, 100*sm.RtpCI.Hi)).
		add("Total Bet", p.Sprintf("%d", sm.TotalBet)).
		add("Total Win", p.Sprintf("%d", sm.TotalWin)).
		add("Line Win", p.Sprintf("%d (%d hits)", sm.LineWin, sm.LineHits)).
		add("Partial Win", p.Sprintf("%d (%d hits)", sm.PartialWin, sm.PartialHits)).
		add("Jackpot Win", p.Sprintf("%d (%d hits)", sm.JackpotWin, sm.JackpotHits)).
		add("Pity Forced", p.Sprintf("%d", sm.ForcedWins)).
		add("Hit Rate", p.Sprintf("%.2f %%", 100*sm.HitRate)).
		add("Max Loss Streak", p.Sprintf("%d", sm.MaxLossStreak)).
		add("STD", p.Sprintf("%.3f", sm.Std)).
		add("CV", p.Sprintf("%.3f", sm.Cv))
	_, err := io.WriteString(w, t.String())
	return err
}
