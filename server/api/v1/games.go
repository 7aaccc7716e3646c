package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zintix-labs/reelkit"
	"github.com/zintix-labs/reelkit/dto"
	"github.com/zintix-labs/reelkit/server/httperr"
)

// GameHandler 遊戲目錄與彩金池查詢
type GameHandler struct {
	kit *reelkit.Kit
}

func NewGameHandler(kit *reelkit.Kit) *GameHandler {
	return &GameHandler{kit: kit}
}

// Games GET /v1/games
func (h *GameHandler) Games(w http.ResponseWriter, r *http.Request) {
	sum, err := h.kit.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, sum)
}

// Jackpot GET /v1/games/{gid}/jackpot
func (h *GameHandler) Jackpot(w http.ResponseWriter, r *http.Request) {
	gid, err := dto.ParseGID(chi.URLParam(r, "gid"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	p, err := h.kit.Pool(gid)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	_ = dto.WriteJSON(w, http.StatusOK, dto.JackpotView{
		GameId: gid,
		Amount: p.Amount().String(),
		Seed:   p.Seed().String(),
		Awards: p.Awards(),
	})
}
