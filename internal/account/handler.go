package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/collabmd/server/pkg/utils"
)

// Handler exposes the account store over REST.
type Handler struct {
	store  *Store
	logger zerolog.Logger
}

// NewHandler creates the account handler.
func NewHandler(store *Store, logger zerolog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes registers the account routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts", h.handleCreate)
	r.Post("/login", h.handleLogin)
	r.Post("/accounts/{username}/friends", h.handleAddFriend)
	r.Get("/accounts/{username}/friends", h.handleFriends)
	r.Put("/accounts/{username}/session", h.handleSetSession)
	r.Delete("/accounts/{username}/session", h.handleClearSession)
	r.Get("/accounts/{username}/friends/{friend}/session", h.handleFriendSession)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Username == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	switch err := h.store.Create(r.Context(), payload.Username, payload.Password); {
	case errors.Is(err, ErrExists):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case err != nil:
		h.logger.Error().Err(err).Msg("create account failed")
		utils.RespondError(w, http.StatusInternalServerError, "create account failed")
	default:
		utils.RespondJSON(w, http.StatusCreated, map[string]string{"username": payload.Username})
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentials
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch err := h.store.Login(r.Context(), payload.Username, payload.Password); {
	case errors.Is(err, ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrWrongPassword):
		utils.RespondError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		h.logger.Error().Err(err).Msg("login failed")
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
	default:
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *Handler) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var payload struct {
		Friend string `json:"friend"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Friend == "" {
		utils.RespondError(w, http.StatusBadRequest, "friend is required")
		return
	}

	switch err := h.store.AddFriend(r.Context(), username, payload.Friend); {
	case errors.Is(err, ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyFriends):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case err != nil:
		h.logger.Error().Err(err).Msg("add friend failed")
		utils.RespondError(w, http.StatusInternalServerError, "add friend failed")
	default:
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "friend added"})
	}
}

func (h *Handler) handleFriends(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	friends, err := h.store.Friends(r.Context(), username)
	if err != nil {
		h.logger.Error().Err(err).Msg("list friends failed")
		utils.RespondError(w, http.StatusInternalServerError, "list friends failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"friends": friends})
}

func (h *Handler) handleSetSession(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	h.respondSessionUpdate(w, h.store.SetActiveSession(r.Context(), username, payload.SessionID))
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	h.respondSessionUpdate(w, h.store.ClearActiveSession(r.Context(), username))
}

func (h *Handler) respondSessionUpdate(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.logger.Error().Err(err).Msg("update session pointer failed")
		utils.RespondError(w, http.StatusInternalServerError, "update session pointer failed")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleFriendSession(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	friend := chi.URLParam(r, "friend")

	sessionID, err := h.store.FriendSession(r.Context(), username, friend)
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotMutual):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNoActiveSession):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.logger.Error().Err(err).Msg("friend session lookup failed")
		utils.RespondError(w, http.StatusInternalServerError, "friend session lookup failed")
	default:
		utils.RespondJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
	}
}
