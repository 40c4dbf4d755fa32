package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/collabmd/server/internal/account"
	middlewarePkg "github.com/collabmd/server/internal/middleware"
	"github.com/collabmd/server/internal/relay"
	"github.com/collabmd/server/pkg/utils"
)

// NewRouter wires the relay endpoint and the REST surfaces. The account
// handler is optional; passing nil serves the relay alone.
func NewRouter(relayHandler *relay.Handler, accountHandler *account.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	relayHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Post("/sessions", handleMintSession(logger))

		if accountHandler != nil {
			accountHandler.RegisterRoutes(api)
		}
	})

	return r
}

// handleMintSession returns a fresh collision-resistant session id.
// Purely advisory: the relay accepts arbitrary client-chosen ids too.
func handleMintSession(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := gonanoid.New()
		if err != nil {
			logger.Error().Err(err).Msg("mint session id failed")
			utils.RespondError(w, http.StatusInternalServerError, "mint session id failed")
			return
		}
		utils.RespondJSON(w, http.StatusCreated, map[string]string{"sessionId": id})
	}
}
