package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/dto"
	"github.com/zintix-labs/reelkit/errs"
	"github.com/zintix-labs/reelkit/sdk/core"
	"github.com/zintix-labs/reelkit/server/httperr"
	"github.com/zintix-labs/reelkit/spec"
	"github.com/zintix-labs/reelkit/stats"
)

var (
	errNotFound = errs.NewCode(errs.Warn, errs.CodeNotFound, "session not found or expired")
	errSimBusy  = errs.NewCode(errs.Fatal, errs.CodeUnavailable, "too many simulations in flight")
)

// SimHandler 模擬與分布檢定。
// 模擬器各自持有彩金池，不影響線上 session；同時進行的模擬數量受 slots 限制。
type SimHandler struct {
	kit     *reelkit.Kit
	log     *slog.Logger
	timeout time.Duration
	slots   chan struct{}
}

func NewSimHandler(kit *reelkit.Kit, log *slog.Logger, timeout time.Duration, maxInflight int) *SimHandler {
	return &SimHandler{
		kit:     kit,
		log:     log,
		timeout: timeout,
		slots:   make(chan struct{}, max(1, maxInflight)),
	}
}

// Sim GET|POST /v1/sim[?format=yaml]
//
// players > 0 走玩家模擬（回傳含 est），否則 workers > 1 時並行模擬。
func (h *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	var (
		req *dto.SimRequest
		err error
	)
	if r.Method == http.MethodGet {
		req, err = dto.DecodeSimQuery(r.URL.Query())
	} else {
		req, err = dto.DecodeJSON[dto.SimRequest](r)
	}
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	release, err := h.acquire(r.Context())
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	defer release()

	sim, err := h.simulator(req.GameId, req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	var (
		st  *stats.StatReport
		est *stats.EstimatorPlayers
		d   time.Duration
	)
	switch {
	case req.Players > 0:
		st, est, d, err = sim.SimPlayers(max(1, req.Workers), req.Players, req.Balance, req.Bet, req.Rounds, false)
	case req.Workers > 1:
		st, d, err = sim.SimMP(req.Bet, req.Rounds, req.Workers, false)
	default:
		st, d, err = sim.Sim(req.Bet, req.Rounds, false)
	}
	if err != nil {
		httperr.Log(h.log, "sim failed", err)
		httperr.Errs(w, err)
		return
	}
	h.log.Debug("sim done",
		slog.String("game", sim.GameName),
		slog.Int("rounds", req.Rounds),
		slog.Int("players", req.Players),
		slog.Duration("used", d),
	)
	if est == nil && r.URL.Query().Get("format") == "yaml" {
		_ = dto.WriteReport(w, "yaml", st)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, dto.SimView{Stats: st, Estimator: est, UsedTime: d.Milliseconds()})
}

// SimByConfig POST /v1/sim/config
func (h *SimHandler) SimByConfig(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.SimConfigRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	release, err := h.acquire(r.Context())
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	defer release()

	seed, err := seedOr(req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	var sim *reelkit.Simulator
	if req.Format == "yaml" {
		sim, err = h.kit.NewSimulatorByYAML([]byte(req.Config), seed)
	} else {
		sim, err = h.kit.NewSimulatorByJSON([]byte(req.Config), seed)
	}
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st, d, err := sim.Sim(req.Bet, req.Rounds, false)
	if err != nil {
		httperr.Log(h.log, "sim by config failed", err)
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, dto.SimView{Stats: st, UsedTime: d.Milliseconds()})
}

// Fit GET /v1/fit?gid=1&draws=200000
func (h *SimHandler) Fit(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeFitQuery(r.URL.Query())
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	release, err := h.acquire(r.Context())
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	defer release()

	sim, err := h.simulator(req.GameId, req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rep, err := sim.Fit(req.Draws)
	if err != nil {
		httperr.Log(h.log, "fit failed", err)
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, rep)
}

// acquire 等待模擬名額，最多等 timeout
func (h *SimHandler) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	select {
	case h.slots <- struct{}{}:
		return func() { <-h.slots }, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errSimBusy
		}
		return nil, errs.Wrap(ctx.Err(), "sim canceled")
	}
}

func (h *SimHandler) simulator(gid spec.GID, seed *int64) (*reelkit.Simulator, error) {
	if seed != nil {
		return h.kit.NewSimulatorWithSeed(gid, *seed)
	}
	return h.kit.NewSimulator(gid)
}

func seedOr(seed *int64) (int64, error) {
	if seed != nil {
		return *seed, nil
	}
	return core.NewSeed()
}
