// Package mockapi is an in-memory clinic backend implementing the REST
// contract the web front-end talks to. It backs local development and the
// HTTP level tests of the other packages.
package mockapi

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/api"
)

// DefaultOTPCode is the code every OTP challenge accepts unless WithOTPCode
// overrides it. Nothing is ever delivered by SMS.
const DefaultOTPCode = "123456"

var NowTimeFunc = time.Now

type Option func(*Server)

func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func WithOTPCode(code string) Option {
	return func(s *Server) {
		s.otpCode = code
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithAccessTokenExpiry(d time.Duration) Option {
	return func(s *Server) {
		s.accessTokenExpiry = d
	}
}

// Server is safe for concurrent use.
type Server struct {
	router chi.Router

	secret            []byte
	otpCode           string
	accessTokenExpiry time.Duration
	now               func() time.Time

	refresh    *refreshStore
	generation atomic.Int64

	mu        sync.Mutex
	otps      map[string]otpChallenge
	overrides map[string]http.HandlerFunc
	delays    map[string]time.Duration
	calls     map[string]int
	data      dataset
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:            []byte("clinic-mock-secret"),
		otpCode:           DefaultOTPCode,
		accessTokenExpiry: 15 * time.Minute,
		now:               NowTimeFunc,
		otps:              make(map[string]otpChallenge),
		overrides:         make(map[string]http.HandlerFunc),
		delays:            make(map[string]time.Duration),
		calls:             make(map[string]int),
		data:              seedData(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.refresh = newRefreshStore(32, 14*24*time.Hour, s.now)
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	s.handle(r, http.MethodPost, api.RouteRequestOTP, s.requestOTP)
	s.handle(r, http.MethodPost, api.RouteVerifyOTP, s.verifyOTP)
	s.handle(r, http.MethodPost, api.RouteRefresh, s.refreshTokens)
	s.handle(r, http.MethodGet, api.RouteBootstrap, s.bootstrap)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		s.handle(r, http.MethodGet, api.RoutePatients, s.listPatients)
		s.handle(r, http.MethodPost, api.RoutePatients, s.createPatient)
		s.handle(r, http.MethodGet, api.RouteAppointments, s.listAppointments)
		s.handle(r, http.MethodPost, api.RouteAppointments, s.createAppointment)
		s.handle(r, http.MethodPatch, api.RouteAppointments+"/{id}", s.updateAppointment)
		s.handle(r, http.MethodGet, api.RouteClinic, s.getClinic)
		s.handle(r, http.MethodPut, api.RouteClinic, s.updateClinic)
		s.handle(r, http.MethodGet, api.RouteStaff, s.listStaff)
		s.handle(r, http.MethodPatch, api.RouteStaff+"/{id}", s.toggleStaff)
		s.handle(r, http.MethodGet, api.RouteBillingState, s.billingStatus)
		s.handle(r, http.MethodPost, api.RouteCheckout, s.billingCheckout)
	})
	return r
}

// handle registers h under method and pattern, counting calls and letting
// an override installed with Use take its place.
func (s *Server) handle(r chi.Router, method, pattern string, h http.HandlerFunc) {
	key := routeKey(method, pattern)
	r.MethodFunc(method, pattern, func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[key]++
		override := s.overrides[key]
		delay := s.delays[key]
		s.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}

		log.Debug().Str("route", key).Bool("override", override != nil).Msg("mock api request")
		if override != nil {
			override(w, req)
			return
		}
		h(w, req)
	})
}

func routeKey(method, pattern string) string {
	return method + " " + pattern
}

// Use replaces the handler for method and pattern until ResetOverrides.
// pattern is the route as registered, e.g. "/appointments/{id}".
func (s *Server) Use(method, pattern string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[routeKey(method, pattern)] = h
}

// Delay holds every request to method and pattern for d before it is
// handled, until ResetOverrides.
func (s *Server) Delay(method, pattern string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[routeKey(method, pattern)] = d
}

func (s *Server) ResetOverrides() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]http.HandlerFunc)
	s.delays = make(map[string]time.Duration)
}

// Calls returns how many requests reached method and pattern.
func (s *Server) Calls(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, pattern)]
}

// Reset restores the seed data and clears counters, overrides and pending
// OTP challenges. Issued tokens stay valid.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = seedData()
	s.otps = make(map[string]otpChallenge)
	s.overrides = make(map[string]http.HandlerFunc)
	s.delays = make(map[string]time.Duration)
	s.calls = make(map[string]int)
}

// RevokeAccessTokens invalidates every access token issued so far. Refresh
// tokens are unaffected.
func (s *Server) RevokeAccessTokens() {
	s.generation.Add(1)
}

func (s *Server) tokenGeneration() int64 {
	return s.generation.Load()
}

// IssueTokens mints a token pair for the seeded owner without an OTP round
// trip.
func (s *Server) IssueTokens() (api.TokenPair, error) {
	s.mu.Lock()
	userID := s.data.profile.ID
	s.mu.Unlock()
	return s.issueTokens(userID)
}

func (s *Server) issueTokens(userID string) (api.TokenPair, error) {
	access, err := s.mintAccessToken(userID)
	if err != nil {
		return api.TokenPair{}, err
	}
	refresh, err := s.refresh.Create(userID)
	if err != nil {
		return api.TokenPair{}, err
	}
	return api.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
