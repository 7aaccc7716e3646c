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

package reelkit

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/jackpot"
	"github.com/zintix-labs/reelkit/sdk/slot"
	"github.com/zintix-labs/reelkit/spec"
)

// Machine 封裝一台「可對外提供 Spin」的拉霸機台。
//
// Machine 是 slot.Session 的外殼（shell）：
//   - 對外：提供 Spin 入口（HTTP/模擬器通常只操作 Machine）。
//   - 對內：持有 RNG（Core）、記憶體錢包（Purse）與 session。
//
// 並發語意：同一台 Machine 同時只會處理一轉，重入的 Spin 由 session 以 slot.ErrBusy 拒絕。
type Machine struct {
	gameName string        // 遊戲名稱（主要用於觀測/日誌）
	gameId   spec.GID      // 遊戲 ID（Catalog 內唯一）
	core     *core.Core    // RNG 核心（PRNG + Snapshot/Restore 合約）
	sess     *slot.Session // 單一玩家 session
	initseed int64         // 出生 seed（便於追溯；完整重現請用 Checkpoint/Resume）
}

// machineEnv 建立 Machine 時由 Kit / Simulator 提供的共用資源
type machineEnv struct {
	pool *jackpot.Pool
	cf   core.PRNGFactory
	log  *slog.Logger
	obs  ObserverFor
}

// newMachineWithSeed 以指定 seed 建立 Machine。
//
// 同一份 EngineSetting + 同一個 seed，得到同一串隨機序列。
func newMachineWithSeed(es *spec.EngineSetting, env machineEnv, seed int64, balance int64) (*Machine, error) {
	if balance < 0 {
		return nil, errs.Warnf("initial balance %d must be >= 0", balance)
	}
	var obs slot.Observer
	if env.obs != nil {
		obs = env.obs(es.GameName)
	}
	c := core.New(env.cf.New(seed))
	sess, err := slot.NewSession(slot.SessionConfig{
		Table:         es.Table(),
		JackpotSymbol: es.JackpotSymbol,
		Curve:         es.Curve(),
		Pool:          env.pool,
		Limits:        es.Limits(),
		Partial:       es.Partial(),
		Wallet:        slot.NewPurse(balance),
		Core:          c,
		Logger:        env.log.With(slog.String("game", es.GameName)),
		Observer:      obs,
	})
	if err != nil {
		return nil, err
	}
	return &Machine{
		gameName: es.GameName,
		gameId:   es.GameID,
		core:     c,
		sess:     sess,
		initseed: seed,
	}, nil
}

// Spin 為主要公開入口：下注 amount，回傳該轉結果。
// 下注被拒時餘額、連敗與彩金池都不會變動。
func (m *Machine) Spin(amount int64) (slot.SpinResult, error) {
	return m.sess.RequestSpin(amount)
}

func (m *Machine) GameName() string { return m.gameName }

func (m *Machine) GameID() spec.GID { return m.gameId }

func (m *Machine) InitSeed() int64 { return m.initseed }

// Balance 最近一次結算後的餘額
func (m *Machine) Balance() int64 { return m.sess.Balance() }

func (m *Machine) Session() *slot.Session { return m.sess }

// ============================================================
// ** 斷線重連 **
// ============================================================

// Checkpoint 可保存的機台狀態（餘額在 Session 內）。彩金池為多台共用，不在其中。
type Checkpoint struct {
	GameId  spec.GID      `json:"game_id"`
	Seed    int64         `json:"seed"`
	Session slot.Snapshot `json:"session"`
}

var (
	cpEncoder, _ = zstd.NewWriter(nil)
	cpDecoder, _ = zstd.NewReader(nil)
)

// Checkpoint 取得目前狀態（JSON 後以 zstd 壓縮）。轉動中呼叫回傳 slot.ErrBusy。
func (m *Machine) Checkpoint() ([]byte, error) {
	sn, err := m.sess.Snapshot()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(Checkpoint{
		GameId:  m.gameId,
		Seed:    m.initseed,
		Session: sn,
	})
	if err != nil {
		return nil, errs.Wrap(err, "marshal checkpoint failed")
	}
	return cpEncoder.EncodeAll(raw, nil), nil
}

// Resume 還原 Checkpoint 取得的狀態，checkpoint 必須來自同一款遊戲。
func (m *Machine) Resume(data []byte) error {
	raw, err := cpDecoder.DecodeAll(data, nil)
	if err != nil {
		return errs.NewWithExtra(errs.Warn, "decompress checkpoint failed", err.Error())
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return errs.NewWithExtra(errs.Warn, "unmarshal checkpoint failed", err.Error())
	}
	if cp.GameId != m.gameId {
		return errs.Warnf("checkpoint game id %d does not match machine %d", cp.GameId, m.gameId)
	}
	// 餘額在 session 的 Idle 區段內寫回，不會與轉動交錯
	if err := m.sess.Resume(cp.Session); err != nil {
		if errors.Is(err, slot.ErrBusy) {
			return err
		}
		// 內容來自外部，還原失敗視為請求錯誤
		return errs.NewWithExtra(errs.Warn, "restore checkpoint failed", err.Error())
	}
	m.initseed = cp.Seed
	return nil
}
