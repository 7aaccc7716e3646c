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

// Package reelkit 是三輪拉霸引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Kit 把下列地基組裝在一起：
//  1. Catalog：遊戲目錄，定義有哪些遊戲、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，同一 seed 必定得到同一序列。
//  3. 彩金池：每款遊戲一個，由該遊戲所有 Machine 共用。
//
// Kit 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//
// 典型使用情境：
//   - 後端服務（HTTP）：BuildRuntime 取得 Runtime，以 session id 管理玩家機台。
//   - 模擬器（sim）：NewSimulator 建立多台 Machine 進行大量模擬。
package reelkit

import (
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/zintix-labs/reelkit/catalog"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/jackpot"
	"github.com/zintix-labs/reelkit/sdk/slot"
	"github.com/zintix-labs/reelkit/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把 configs 直接編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Kit 組裝器
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、解析設定檔、檢查重複。
//   - 執行階段：Freeze 之後依遊戲 ID 產生 Machine / Simulator / Runtime。
//
// Catalog 的 ID 唯一性只保證在同一個 Kit 內。
type Kit struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	sum []catalog.Summary

	mu    sync.Mutex
	pools map[spec.GID]*jackpot.Pool

	log *slog.Logger
	obs ObserverFor
}

// ObserverFor 依遊戲名稱產生 slot.Observer（例如帶 game label 的 metrics）
type ObserverFor func(game string) slot.Observer

// New 建立一個 Kit instance（註冊階段）。
//
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現的核心。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 EngineSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Kit, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Kit{
		cat:   cata,
		cf:    cf,
		pools: make(map[spec.GID]*jackpot.Pool),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// NewAuto 建立一個直接進入執行階段的 Kit instance。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Kit, error) {
	k, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := k.RegisterAll(); err != nil {
		return nil, err
	}
	k.Freeze()
	return k, nil
}

func (k *Kit) Register(ents ...catalog.Entry) error {
	return k.cat.Register(ents...)
}

// RegisterAll 以設定檔內宣告的 game_id / game_name 註冊所有設定檔。
// 任一檔案失敗即回傳錯誤，全部通過才一次寫入目錄。
func (k *Kit) RegisterAll() error {
	entries, err := k.cat.Discover()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	return k.cat.Register(entries...)
}

func (k *Kit) Freeze() {
	k.cat.Freeze()
}

func (k *Kit) EntryById(id spec.GID) (catalog.Entry, bool) {
	return k.cat.GetByID(id)
}

func (k *Kit) EntryByName(name string) (catalog.Entry, bool) {
	return k.cat.GetByName(name)
}

func (k *Kit) IDs() []spec.GID {
	return k.cat.IDs()
}

func (k *Kit) All() []catalog.Entry {
	return k.cat.All()
}

// SetLogger 之後建立的 Machine 使用此 logger（彩金派彩 Info、保底觸發 Debug）
func (k *Kit) SetLogger(log *slog.Logger) {
	if log != nil {
		k.log = log
	}
}

// SetObserver 之後建立的 Machine 每轉結束都會通知 obs 產生的 Observer
func (k *Kit) SetObserver(obs ObserverFor) {
	k.obs = obs
}

// Setting 取得遊戲設定（每次重新解析，呼叫端可自由持有）
func (k *Kit) Setting(id spec.GID) (*spec.EngineSetting, error) {
	if !k.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return k.cat.SettingByID(id)
}

func (k *Kit) Summary() ([]catalog.Summary, error) {
	if !k.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if k.sum != nil {
		return k.sum, nil
	}
	ids := k.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		es, err := k.cat.SettingByID(id)
		if err != nil {
			return nil, err
		}
		cs = append(cs, catalog.Summarize(es))
	}
	k.sum = cs
	return k.sum, nil
}

// Pool 取得遊戲的共用彩金池，第一次取用時以設定的 seed 建立
func (k *Kit) Pool(id spec.GID) (*jackpot.Pool, error) {
	es, err := k.Setting(id)
	if err != nil {
		return nil, err
	}
	return k.poolOf(es)
}

func (k *Kit) poolOf(es *spec.EngineSetting) (*jackpot.Pool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if p, ok := k.pools[es.GameID]; ok {
		return p, nil
	}
	p, err := es.NewPool()
	if err != nil {
		return nil, err
	}
	k.pools[es.GameID] = p
	return p, nil
}

// NewMachine 依據 Catalog 內的遊戲 ID 建立一台 Machine（seed 由 crypto/rand 產生）。
//
// 同一款遊戲的所有 Machine 共用 Kit 持有的彩金池。
func (k *Kit) NewMachine(id spec.GID, balance int64) (*Machine, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return k.NewMachineWithSeed(id, balance, seed)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// 同一份設定 + 同一個 seed + 同一個彩金池狀態，得到同一串結果。
func (k *Kit) NewMachineWithSeed(id spec.GID, balance int64, seed int64) (*Machine, error) {
	es, err := k.Setting(id)
	if err != nil {
		return nil, err
	}
	pool, err := k.poolOf(es)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(es, machineEnv{pool: pool, cf: k.cf, log: k.log, obs: k.obs}, seed, balance)
}

// NewSimulator 建立模擬器。模擬器使用自己的彩金池，不影響線上的共用池。
func (k *Kit) NewSimulator(id spec.GID) (*Simulator, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return k.NewSimulatorWithSeed(id, seed)
}

func (k *Kit) NewSimulatorWithSeed(id spec.GID, seed int64) (*Simulator, error) {
	es, err := k.Setting(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(es, k.cf, seed)
}

// NewSimulatorByJSON 以外部傳入的設定（例如調整權重後的版本）建立模擬器。
// 設定的 GameID 與 GameName 必須對應目錄中同一款遊戲。
func (k *Kit) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	es, err := spec.GetEngineSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := k.validCfg(es); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(es, k.cf, seed)
}

func (k *Kit) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	es, err := spec.GetEngineSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := k.validCfg(es); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(es, k.cf, seed)
}

func (k *Kit) validCfg(es *spec.EngineSetting) error {
	if !k.cat.IsFrozen() {
		return errs.NewFatal("catalog is not frozen yet")
	}
	ent, ok := k.cat.GetByID(es.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := k.cat.GetByName(es.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}
