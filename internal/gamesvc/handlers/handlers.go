package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"

	"github.com/connect-squares/connect-services/internal/gamesvc/engine"
	"github.com/connect-squares/connect-services/internal/gamesvc/service"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth

	games    *service.GameService
	metadata *service.MetadataService
	balances *service.BalanceService
}

func NewHandler(games *service.GameService, metadata *service.MetadataService, balances *service.BalanceService) *Handler {
	return &Handler{
		games:    games,
		metadata: metadata,
		balances: balances,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

// playerID reads the caller identity from the verified JWT.
func (h *Handler) playerID(r *http.Request) (string, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false
	}
	id, ok := claims["player_id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	h.CreateResponse(w, Response{
		Message: "request failed",
		Code:    statusFor(err),
		Error:   err.Error(),
	})
}

// statusFor maps store and rule errors onto HTTP statuses. Rule
// violations against current record state are conflicts, not bad
// requests.
func statusFor(err error) int {
	if errors.Is(err, service.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, service.ErrDuplicateGame) {
		return http.StatusConflict
	}
	switch engine.ErrCode(err) {
	case engine.CodeInvalidConfig, engine.CodeOutOfBounds:
		return http.StatusBadRequest
	case engine.CodeUnauthorized, engine.CodeNotAuthorized:
		return http.StatusForbidden
	case engine.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case engine.CodeGameNotWaiting, engine.CodeGameFull, engine.CodeAlreadyJoined,
		engine.CodeNotPlayersTurn, engine.CodeCellOccupied, engine.CodeGameAlreadyOver,
		engine.CodeAlreadyInitialized, engine.CodeTurnNotExpired:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	h.CreateResponse(w, Response{
		Message: "request failed",
		Code:    http.StatusUnauthorized,
		Error:   "missing player identity",
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, detail string) {
	h.CreateResponse(w, Response{
		Message: "request failed",
		Code:    http.StatusBadRequest,
		Error:   detail,
	})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
	})
}
