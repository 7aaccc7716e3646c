package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/dto"
	"github.com/zintix-labs/reelkit/server/httperr"
)

// SessionHandler 玩家 session：開局、查詢、下注、斷線保存與還原
type SessionHandler struct {
	rt      *reelkit.Runtime
	log     *slog.Logger
	timeout time.Duration
}

func NewSessionHandler(rt *reelkit.Runtime, log *slog.Logger, timeout time.Duration) *SessionHandler {
	return &SessionHandler{rt: rt, log: log, timeout: timeout}
}

// Open POST /v1/sessions
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeJSON[dto.OpenSessionRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sid, m, err := h.rt.Open(ctx, req.GameId, req.Balance, req.Seed)
	if err != nil {
		httperr.Log(h.log, "open session failed", err)
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusCreated, view(sid, m))
}

// Get GET /v1/sessions/{sid}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	m, err := h.rt.Get(sid)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, view(sid, m))
}

// Delete DELETE /v1/sessions/{sid}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.rt.Delete(chi.URLParam(r, "sid")) {
		httperr.Errs(w, errNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Spin POST /v1/sessions/{sid}/spin
//
// 下注是否合法完全交給 session：被拒時回 422 與原因代碼，session 狀態不變。
func (h *SessionHandler) Spin(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	req, err := dto.DecodeJSON[dto.SpinRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.rt.Spin(ctx, sid, req.Bet)
	if err != nil {
		httperr.Log(h.log, "spin failed", err)
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, dto.SpinView{SessionId: sid, SpinResult: res})
}

// Checkpoint GET /v1/sessions/{sid}/checkpoint
func (h *SessionHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	m, err := h.rt.Get(sid)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	raw, err := m.Checkpoint()
	if err != nil {
		httperr.Log(h.log, "checkpoint failed", err)
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, dto.CheckpointView{SessionId: sid, Checkpoint: dto.EncodeCheckpoint(raw)})
}

// Resume POST /v1/sessions/{sid}/resume
//
// token 必須來自同一款遊戲；失敗時機台維持原狀。
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	req, err := dto.DecodeJSON[dto.ResumeRequest](r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	raw, err := dto.DecodeCheckpoint(req.Checkpoint)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	m, err := h.rt.Get(sid)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if err := m.Resume(raw); err != nil {
		httperr.Log(h.log, "resume failed", err)
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, view(sid, m))
}

func view(sid string, m *reelkit.Machine) dto.SessionView {
	s := m.Session()
	return dto.SessionView{
		SessionId:   sid,
		GameId:      m.GameID(),
		GameName:    m.GameName(),
		Balance:     m.Balance(),
		Phase:       s.Phase(),
		Streak:      s.Streak(),
		PityChance:  s.PityChance(),
		JackpotPool: s.Pool().Amount().Floor().IntPart(),
		Seed:        m.InitSeed(),
	}
}
