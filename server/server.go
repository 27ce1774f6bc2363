package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/companion"
	"github.com/beautyclinic/clinic-web/cookies"
	"github.com/beautyclinic/clinic-web/internal/config"
	"github.com/beautyclinic/clinic-web/internal/metrics"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "PRODUCTION")
	router    chi.Router
	routes    []string
	config    config.Config
	api       *api.Client
	registry  *prometheus.Registry
	metrics   *metrics.SessionMetrics
	companion *companion.Handler
	pages     *pages
}

func New(cfg config.Config, client *api.Client) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("[Server New] api client required")
	}
	if err := cookies.CheckName(cfg.GetRefreshCookieName()); err != nil {
		return nil, fmt.Errorf("[Server New] refresh cookie: %w", err)
	}
	tmpl, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		env:       cfg.GetEnv(),
		router:    chi.NewRouter(),
		config:    cfg,
		api:       client,
		registry:  registry,
		metrics:   metrics.NewSessionMetrics(registry),
		companion: companion.NewHandler(cookieSettings(cfg)),
		pages:     tmpl,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRoute mounts handler on r and records it for the DEV route log.
func (s *Server) RegisterRoute(r chi.Router, method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	r.MethodFunc(method, pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		logRoute(parts[0], parts[1])
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func cookieSettings(cfg config.Config) companion.CookieSettings {
	return companion.CookieSettings{
		Name:   cfg.GetRefreshCookieName(),
		MaxAge: cfg.GetRefreshCookieMaxAge(),
		Secure: cfg.IsProduction(),
	}
}
