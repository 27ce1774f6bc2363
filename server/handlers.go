package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/api"
)

// pageData is the template model shared by every page.
type pageData struct {
	AppName string
	Title   string
	Boot    *api.Bootstrap
	Error   string
	Data    any
}

func (s *Server) page(title string, boot *api.Bootstrap, data any) pageData {
	return pageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		Boot:    boot,
		Data:    data,
	}
}

// IndexHandler sends visitors to the app; the guard decides whether they
// end up on the login page.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.config.GetAppPath(), http.StatusSeeOther)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// LoadingHandler is served while a guarded page waits on the session. The
// page reloads itself.
func (s *Server) LoadingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		s.pages.render(w, http.StatusServiceUnavailable, "loading.html", s.page("Loading", nil, nil))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}
