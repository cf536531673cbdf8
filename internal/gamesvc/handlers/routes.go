package handlers

import (
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes
		r.Get("/health", h.HealthHandler)
		r.Get("/games/{gameID}", h.GetGameHandler)
		r.Get("/metadata", h.GetMetadataHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Post("/games", h.CreateGameHandler)
			r.Post("/games/{gameID}/join", h.JoinGameHandler)
			r.Post("/games/{gameID}/play", h.PlayMoveHandler)
			r.Post("/games/{gameID}/cancel", h.CancelGameHandler)
			r.Post("/games/{gameID}/skip", h.SkipTurnHandler)

			r.Post("/metadata", h.InitMetadataHandler)
			r.Post("/metadata/authority", h.SetAuthorityHandler)
			r.Post("/metadata/withdraw", h.WithdrawHandler)

			r.Get("/balance", h.GetBalanceHandler)
			r.Post("/balance/topup", h.TopupHandler)
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"player_id": "dev-player",
		"exp":       expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}
