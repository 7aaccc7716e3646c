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
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"

	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/recorder"
	"github.com/zintix-labs/reelkit/sdk/bet"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/sdk/jackpot"
	"github.com/zintix-labs/reelkit/sdk/reel"
	"github.com/zintix-labs/reelkit/sdk/streak"
	"github.com/zintix-labs/reelkit/spec"
	"github.com/zintix-labs/reelkit/stats"
)

const (
	capPrepare int = 100
	// 模擬機台的錢包餘額，足夠任何模擬長度使用；玩家資金由 recorder 另外追蹤
	simBalance int64 = 1 << 60
)

// Simulator 用於模擬遊戲行為，可建立多台機台並平行紀錄統計。
//
// 所有機台共用模擬器自己的彩金池（與 Kit 的線上共用池分開）。
type Simulator struct {
	GameName  string                   // 遊戲名稱
	GameId    spec.GID                 // 遊戲編號
	es        *spec.EngineSetting      // 方便重用建立機台
	cf        core.PRNGFactory         // 亂數生成器
	pool      *jackpot.Pool            // 模擬用彩金池
	initSeed  int64                    // 初始下的種子
	seedmaker *seedMaker               // 種子生成器
	mBuf      []*Machine               // 併發執行機台實例
	rBuf      []*recorder.SpinRecorder // 併發遊戲紀錄員
	sBuf      []*stats.StatReport      // 併發統計結果報表(僅Players需要)
}

// FitReport 滾輪分布檢定結果
type FitReport struct {
	Draws        int             `json:"draws"`
	Symbols      []string        `json:"symbols"`
	Observed     []int           `json:"observed"`     // 第一輪各圖標出現次數
	Expected     []float64       `json:"expected"`     // weight/total
	Distribution stats.FitResult `json:"distribution"` // 第一輪 vs 權重
	Independence stats.FitResult `json:"independence"` // 第一輪 x 第二輪
}

func newSimulatorWithSeed(es *spec.EngineSetting, cf core.PRNGFactory, seed int64) (*Simulator, error) {
	pool, err := es.NewPool()
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		GameName:  es.GameName,
		GameId:    es.GameID,
		es:        es,
		cf:        cf,
		pool:      pool,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.SpinRecorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	m, err := s.newMachine(s.initSeed)
	if err != nil {
		return nil, err
	}
	s.mBuf[0] = m
	return s, nil
}

func (s *Simulator) newMachine(seed int64) (*Machine, error) {
	env := machineEnv{
		pool: s.pool,
		cf:   s.cf,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return newMachineWithSeed(s.es, env, seed, simBalance)
}

// Pool 模擬用彩金池
func (s *Simulator) Pool() *jackpot.Pool { return s.pool }

// Sim 單線模擬器：以一台機台連續跑指定 round 並回傳統計結果與用時
func (s *Simulator) Sim(amount int64, round int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if err := s.checkBet(amount); err != nil {
		return nil, 0, err
	}
	if round < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepareRecorders(1, amount, 0); err != nil {
		return nil, 0, err
	}
	r := s.rBuf[0]
	m := s.mBuf[0]

	bar := newBar(round, showpb)
	for i := 0; i < round; i++ {
		sr, err := m.Spin(amount)
		if err != nil {
			return nil, 0, err
		}
		r.Record(&sr)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多個機台，總計 rounds*mp 次 spin，合併統計結果後回傳統計結果與用時
func (s *Simulator) SimMP(amount int64, rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if err := s.checkBet(amount); err != nil {
		return nil, 0, err
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if err := s.prepareMachines(mp); err != nil {
		return nil, 0, err
	}
	if err := s.prepareRecorders(mp, amount, 0); err != nil {
		return nil, 0, err
	}

	bar := newBar(rounds*mp, showpb)
	g := new(errgroup.Group)
	for i := 0; i < mp; i++ {
		m, st := s.mBuf[i], s.rBuf[i]
		g.Go(func() error {
			for range rounds {
				sr, err := m.Spin(amount)
				if err != nil {
					return err
				}
				st.Record(&sr)
				bar.Increment()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		bar.Finish()
		return nil, 0, err
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, err := recorder.MergeSpinRecorder(s.rBuf[:mp])
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()

	return result, used, nil
}

// SimPlayers 模擬多個玩家各自帶入初始籌碼的遊戲歷程，並產出機台報表與玩家報表。
//
// 玩家在破產（餘額不足一注）或達到 3 倍本金時離場；每位玩家開始時連敗狀態歸零。
func (s *Simulator) SimPlayers(mp int, players int, initBalance int, amount int64, rounds int, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || initBalance < 1 || rounds < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	if err := s.checkBet(amount); err != nil {
		return nil, nil, 0, err
	}
	if err := s.prepareMachines(mp); err != nil {
		return nil, nil, 0, err
	}
	if err := s.prepareRecorders(players, amount, initBalance); err != nil {
		return nil, nil, 0, err
	}
	s.sBuf = make([]*stats.StatReport, players)

	bar := newBar(players, showpb)
	g, ctx := errgroup.WithContext(context.Background())
	// 作一個2048大小的緩衝channel 使player依序處理
	jobs := make(chan *recorder.SpinRecorder, 2048)
	for w := 0; w < mp; w++ {
		m := s.mBuf[w]
		g.Go(func() error { return simPlayer(m, jobs, amount, rounds, bar) })
	}
	g.Go(func() error {
		defer close(jobs)
		for _, j := range s.rBuf[:players] {
			select {
			case jobs <- j:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		bar.Finish()
		return nil, nil, 0, err
	}
	used := time.Since(bar.StartTime())
	bar.Finish()

	// 機台基準報表
	record, err := recorder.MergeSpinRecorder(s.rBuf[:players])
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()
	st.Done()

	// 玩家分析報表
	for i, r := range s.rBuf[:players] {
		s.sBuf[i] = r.Done()
		s.sBuf[i].Done()
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

func simPlayer(m *Machine, jobs <-chan *recorder.SpinRecorder, amount int64, rounds int, bar *pb.ProgressBar) error {
	for j := range jobs {
		if err := m.sess.Restore(streak.State{}); err != nil {
			return err
		}
		for range rounds {
			sr, err := m.Spin(amount)
			if err != nil {
				return err
			}
			if j.RecordWithPlayer(&sr) {
				break
			}
		}
		bar.Increment()
	}
	return nil
}

// Fit 以 draws 次純權重抽樣檢定滾輪：第一輪頻率 vs weight/total，以及第一輪與第二輪的獨立性。
func (s *Simulator) Fit(draws int) (*FitReport, error) {
	if draws < 1 {
		return nil, errs.NewWarn("draws must > 0")
	}
	tb := s.es.Table()
	gen, err := reel.New(tb, s.es.JackpotSymbol, core.New(s.cf.New(s.seedmaker.next())))
	if err != nil {
		return nil, err
	}
	n := tb.Len()
	obs := make([]int, n)
	joint := make([][]int, n)
	for i := range joint {
		joint[i] = make([]int, n)
	}
	for range draws {
		o := gen.Draw(reel.NewWeighted())
		a, b := tb.Index(o[0]), tb.Index(o[1])
		obs[a]++
		joint[a][b]++
	}
	rep := &FitReport{
		Draws:    draws,
		Symbols:  make([]string, n),
		Observed: obs,
		Expected: make([]float64, n),
	}
	for i, sym := range tb.All() {
		rep.Symbols[i] = string(sym.ID)
		rep.Expected[i] = tb.Probability(sym.ID)
	}
	rep.Distribution = stats.GoodnessOfFit(obs, rep.Expected)
	rep.Independence = stats.Independence(joint)
	return rep, nil
}

func (s *Simulator) checkBet(amount int64) error {
	if err := bet.Validate(amount, simBalance, s.es.Limits()); err != nil {
		return err
	}
	return nil
}

func (s *Simulator) prepareMachines(mp int) error {
	for len(s.mBuf) < mp {
		m, err := s.newMachine(s.seedmaker.next())
		if err != nil {
			return err
		}
		s.mBuf = append(s.mBuf, m)
	}
	return nil
}

func (s *Simulator) prepareRecorders(n int, amount int64, initBalance int) error {
	for len(s.rBuf) < n {
		r, err := recorder.NewSpinRecorder(s.GameName, uint(s.GameId), int(amount), initBalance)
		if err != nil {
			return err
		}
		s.rBuf = append(s.rBuf, r)
	}
	return nil
}

func newBar(total int, show bool) *pb.ProgressBar {
	bar := pb.StartNew(total)
	if !show {
		bar.SetWriter(io.Discard)
	}
	return bar
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以 CAS 推進 full-period LCG（mod 2^63），再用可逆 mix63 打散。
// 可被多個 goroutine 同時呼叫。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
