package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
)

type createGameRequest struct {
	Nonce      uint32 `json:"nonce"`
	Rows       uint8  `json:"rows"`
	Cols       uint8  `json:"cols"`
	Connect    uint8  `json:"connect"`
	MinPlayers uint8  `json:"min_players"`
	MaxPlayers uint8  `json:"max_players"`
	Wager      int64  `json:"wager"`
}

func (h *Handler) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	player, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	game, err := h.games.Init(r.Context(), player, req.Nonce, engine.Config{
		Rows:       req.Rows,
		Cols:       req.Cols,
		Connect:    req.Connect,
		MinPlayers: req.MinPlayers,
		MaxPlayers: req.MaxPlayers,
		Wager:      req.Wager,
	})
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "game created",
		Code:    http.StatusCreated,
		Data:    game,
	})
}

func (h *Handler) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.Get(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "game",
		Code:    http.StatusOK,
		Data:    game,
	})
}

func (h *Handler) JoinGameHandler(w http.ResponseWriter, r *http.Request) {
	player, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	game, err := h.games.Join(r.Context(), player, chi.URLParam(r, "gameID"))
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "joined",
		Code:    http.StatusOK,
		Data:    game,
	})
}

type playMoveRequest struct {
	Row uint8 `json:"row"`
	Col uint8 `json:"col"`
}

func (h *Handler) PlayMoveHandler(w http.ResponseWriter, r *http.Request) {
	player, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	var req playMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	game, err := h.games.Play(r.Context(), player, chi.URLParam(r, "gameID"), engine.Tile{Row: req.Row, Col: req.Col})
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "move played",
		Code:    http.StatusOK,
		Data:    game,
	})
}

func (h *Handler) CancelGameHandler(w http.ResponseWriter, r *http.Request) {
	player, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	if err := h.games.Cancel(r.Context(), player, chi.URLParam(r, "gameID")); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "game cancelled, wagers refunded",
		Code:    http.StatusOK,
	})
}

func (h *Handler) SkipTurnHandler(w http.ResponseWriter, r *http.Request) {
	player, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	game, err := h.games.Skip(r.Context(), player, chi.URLParam(r, "gameID"))
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "turn skipped",
		Code:    http.StatusOK,
		Data:    game,
	})
}
