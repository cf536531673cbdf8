package handlers

import (
	"encoding/json"
	"net/http"
)

func (h *Handler) InitMetadataHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	md, err := h.metadata.Init(r.Context(), caller)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "metadata initialized",
		Code:    http.StatusCreated,
		Data:    md,
	})
}

func (h *Handler) GetMetadataHandler(w http.ResponseWriter, r *http.Request) {
	md, err := h.metadata.Get(r.Context())
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "metadata",
		Code:    http.StatusOK,
		Data:    md,
	})
}

type setAuthorityRequest struct {
	Authority string `json:"authority"`
}

func (h *Handler) SetAuthorityHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	var req setAuthorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Authority == "" {
		h.badRequest(w, "authority is required")
		return
	}

	md, err := h.metadata.SetAuthority(r.Context(), caller, req.Authority)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "authority updated",
		Code:    http.StatusOK,
		Data:    md,
	})
}

type withdrawRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body")
		return
	}

	if err := h.metadata.Withdraw(r.Context(), caller, req.Amount); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "fees withdrawn",
		Code:    http.StatusOK,
	})
}

func (h *Handler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	player, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	balance, err := h.balances.PlayerBalance(r.Context(), player)
	if err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "balance",
		Code:    http.StatusOK,
		Data:    map[string]int64{"balance": balance},
	})
}

type topupRequest struct {
	Player string `json:"player"`
	Amount int64  `json:"amount"`
}

func (h *Handler) TopupHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.playerID(r)
	if !ok {
		h.unauthorized(w)
		return
	}

	var req topupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Player == "" {
		h.badRequest(w, "player and amount are required")
		return
	}

	if err := h.balances.Topup(r.Context(), caller, req.Player, req.Amount); err != nil {
		h.errorResponse(w, err)
		return
	}

	h.CreateResponse(w, Response{
		Message: "balance topped up",
		Code:    http.StatusOK,
	})
}
