package dto

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/reelkit/sdk/slot"
	"github.com/zintix-labs/reelkit/sdk/streak"
	"github.com/zintix-labs/reelkit/spec"
	"github.com/zintix-labs/reelkit/stats"
)

// SessionView 玩家 session 狀態
type SessionView struct {
	SessionId   string       `json:"session_id"`
	GameId      spec.GID     `json:"gid"`
	GameName    string       `json:"game"`
	Balance     int64        `json:"balance"`
	Phase       slot.Phase   `json:"phase"`
	Streak      streak.State `json:"streak"`
	PityChance  float64      `json:"pity_chance"`
	JackpotPool int64        `json:"jackpot_pool"`
	Seed        int64        `json:"seed"`
}

// SpinView 一轉結果
type SpinView struct {
	SessionId string `json:"session_id"`
	slot.SpinResult
}

// CheckpointView 斷線重連用 token
type CheckpointView struct {
	SessionId  string `json:"session_id"`
	Checkpoint string `json:"checkpoint_b64u"`
}

// JackpotView 遊戲共用彩金池
type JackpotView struct {
	GameId spec.GID `json:"gid"`
	Amount string   `json:"amount"` // decimal 字串，保留小數
	Seed   string   `json:"seed"`
	Awards int64    `json:"awards"`
}

// SimView 模擬結果
type SimView struct {
	Stats     *stats.StatReport       `json:"stats"`
	Estimator *stats.EstimatorPlayers `json:"est,omitempty"`
	UsedTime  int64                   `json:"used_ms"`
}

// WriteJSON 寫出 JSON，status 為 0 時使用 200
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(v)
}

// WriteReport 依 format 寫出統計報表：yaml 或 json（預設）
func WriteReport(w http.ResponseWriter, format string, st *stats.StatReport) error {
	if format == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
		return st.Write(w, stats.FormatYAML)
	}
	w.Header().Set("Content-Type", "application/json")
	return st.Write(w, stats.FormatJSON)
}
