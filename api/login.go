package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mythosai/mythos/internal/storage"
)

// MaxNameLength bounds the stored display name.
const MaxNameLength = 100

// User is the locally stored sign-in marker. There is no account or
// password; the marker only personalizes the experience.
type User struct {
	Name       string    `json:"name"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

// LoginHandler handles the sign-in marker endpoints.
type LoginHandler struct {
	kv     storage.KV
	logger *slog.Logger
}

// NewLoginHandler creates a new login handler.
func NewLoginHandler(kv storage.KV, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{kv: kv, logger: logger}
}

// RegisterRoutes registers login routes on the given mux.
func (h *LoginHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/login", h.current)
	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("DELETE /api/login", h.logout)
}

// current returns the stored marker, or 404 when signed out.
func (h *LoginHandler) current(w http.ResponseWriter, r *http.Request) {
	data, err := h.kv.Get(r.Context(), storage.KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_signed_in", "")
		return
	}
	if err != nil {
		h.logger.Error("reading sign-in marker failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "")
		return
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		// A corrupt marker behaves like being signed out.
		h.logger.Warn("discarding corrupt sign-in marker", "error", err)
		_ = h.kv.Delete(r.Context(), storage.KeyUser)
		writeError(w, http.StatusNotFound, "not_signed_in", "")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	Name string `json:"name"`
}

// login stores a new marker, replacing any existing one.
func (h *LoginHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_name", "name must not be empty")
		return
	}
	if len(req.Name) > MaxNameLength {
		writeError(w, http.StatusBadRequest, "invalid_name", "name too long (max 100 characters)")
		return
	}

	user := User{Name: req.Name, LoggedInAt: time.Now()}
	data, err := json.Marshal(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", "")
		return
	}
	if err := h.kv.Set(r.Context(), storage.KeyUser, data); err != nil {
		h.logger.Error("storing sign-in marker failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// logout removes the marker. Logging out while signed out succeeds.
func (h *LoginHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.kv.Delete(r.Context(), storage.KeyUser); err != nil {
		h.logger.Error("removing sign-in marker failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
