// Package companion implements the same-origin endpoints that keep the
// refresh token in an HTTP-only cookie, and the session.Vault
// implementations that talk to them.
package companion

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/cookies"
)

const Route = "/api/auth/refresh-token"

// CookieSettings describes the HTTP-only refresh cookie.
type CookieSettings struct {
	Name   string
	MaxAge int
	Secure bool
}

func (c CookieSettings) options() cookies.Options {
	opts := cookies.DefaultOptions(c.Secure)
	opts.HTTPOnly = true
	return opts
}

type Handler struct {
	cookie CookieSettings
}

func NewHandler(cookie CookieSettings) *Handler {
	return &Handler{cookie: cookie}
}

// Routes mounts GET, POST and DELETE on Route.
func (h *Handler) Routes(r chi.Router) {
	r.Get(Route, h.Exists)
	r.Post(Route, h.Save)
	r.Delete(Route, h.Clear)
}

// Exists answers {hasRefreshToken}.
func (h *Handler) Exists(w http.ResponseWriter, r *http.Request) {
	store := cookies.NewRequestStore(w, r)
	_, ok := store.Get(h.cookie.Name)
	writeJSON(w, http.StatusOK, map[string]bool{"hasRefreshToken": ok})
}

// Save stores {refreshToken} as an HTTP-only cookie.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.RefreshToken) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing refresh token"})
		return
	}

	store := cookies.NewRequestStore(w, r)
	store.Set(h.cookie.Name, body.RefreshToken, h.cookie.MaxAge, h.cookie.options())
	store.Flush()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Clear expires the HTTP-only cookie.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	store := cookies.NewRequestStore(w, r)
	store.Set(h.cookie.Name, "", 0, h.cookie.options())
	store.Flush()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("[companion] failed to write response")
	}
}
