// Package session holds the per-tab token state: the in-memory access token
// and the refresh token mirrored into a cookie (and optionally an HTTP-only
// cookie behind a Vault).
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/cookies"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
)

const (
	DefaultCookieName = "refresh_token"
	DefaultMaxAge     = 60 * 60 * 24 * 14
)

// Vault stores the refresh token where scripts cannot read it. The session
// can only ask whether one exists.
type Vault interface {
	Exists(ctx context.Context) (bool, error)
	Save(ctx context.Context, refreshToken string) error
	Clear(ctx context.Context) error
}

// Snapshot is a copy of the session fields at one instant.
type Snapshot struct {
	AccessToken     string
	RefreshToken    string
	HasRefreshToken bool
	IsHydrated      bool
}

type Option func(*State)

func WithVault(v Vault) Option {
	return func(s *State) {
		s.vault = v
	}
}

func WithCookieName(name string) Option {
	return func(s *State) {
		s.cookieName = name
	}
}

func WithMaxAge(seconds int) Option {
	return func(s *State) {
		s.maxAge = seconds
	}
}

// WithSecure marks the refresh cookie Secure, as in production.
func WithSecure(secure bool) Option {
	return func(s *State) {
		s.secure = secure
	}
}

// State is safe for concurrent use. Listeners registered with OnChange run
// outside the lock, after each mutation and after hydration.
type State struct {
	store      cookies.Store
	vault      Vault
	cookieName string
	maxAge     int
	secure     bool

	mu              sync.RWMutex
	accessToken     string
	refreshToken    string
	hasRefreshToken bool
	hydrated        bool
	mutations       int

	hydrateOnce sync.Once

	listenersMu  sync.Mutex
	listeners    map[int]func(Snapshot)
	nextListener int
}

var _ oauth2.TokenSource = (*State)(nil)

func New(store cookies.Store, opts ...Option) *State {
	s := &State{
		store:      store,
		cookieName: DefaultCookieName,
		maxAge:     DefaultMaxAge,
		listeners:  make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *State) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *State) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *State) HasRefreshToken() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasRefreshToken
}

func (s *State) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		AccessToken:     s.accessToken,
		RefreshToken:    s.refreshToken,
		HasRefreshToken: s.hasRefreshToken,
		IsHydrated:      s.hydrated,
	}
}

// Token returns the current access token as a bearer token.
func (s *State) Token() (*oauth2.Token, error) {
	access := s.AccessToken()
	if access == "" {
		return nil, clinicerrors.ErrNoAccessToken
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}

// SetTokens stores pair. A nil pair clears the session. Each field is
// applied only when present, so a pair carrying just an access token keeps
// the existing refresh token.
func (s *State) SetTokens(ctx context.Context, pair *api.TokenPair) {
	if pair == nil {
		s.ClearTokens(ctx)
		return
	}

	s.mu.Lock()
	if pair.AccessToken != "" {
		s.accessToken = pair.AccessToken
	}
	persist := pair.RefreshToken != ""
	if persist {
		s.refreshToken = pair.RefreshToken
		s.hasRefreshToken = true
		s.store.Set(s.cookieName, pair.RefreshToken, s.maxAge, cookies.DefaultOptions(s.secure))
	}
	s.mutations++
	s.mu.Unlock()

	if persist && s.vault != nil {
		if err := s.vault.Save(ctx, pair.RefreshToken); err != nil {
			log.Warn().Err(err).Msg("[session.SetTokens] failed to persist refresh token")
		}
	}
	s.notify()
}

// ClearTokens drops both tokens and deletes every persisted copy of the
// refresh token.
func (s *State) ClearTokens(ctx context.Context) {
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.hasRefreshToken = false
	s.store.Set(s.cookieName, "", 0, cookies.DefaultOptions(s.secure))
	s.mutations++
	s.mu.Unlock()

	if s.vault != nil {
		if err := s.vault.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("[session.ClearTokens] failed to clear refresh token")
		}
	}
	s.notify()
}

// OnChange registers fn and returns a func that unregisters it.
func (s *State) OnChange(fn func(Snapshot)) func() {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *State) notify() {
	s.listenersMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// Hydrate reads the script visible refresh cookie and asks the vault
// whether an HTTP-only one exists, concurrently. Once both answer the
// session is hydrated. Only the first call does any work; concurrent
// callers block until it finishes.
func (s *State) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		s.hydrate(ctx)
	})
}

func (s *State) hydrate(ctx context.Context) {
	s.mu.RLock()
	startedAt := s.mutations
	s.mu.RUnlock()

	var (
		cookie      string
		vaultExists bool
	)

	// Each source writes only its own variable; g.Wait joins them.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if value, ok := s.store.Get(s.cookieName); ok {
			cookie = value
		}
		return nil
	})
	g.Go(func() error {
		if s.vault == nil {
			return nil
		}
		exists, err := s.vault.Exists(gctx)
		if err != nil {
			return fmt.Errorf("[session.Hydrate] refresh token lookup: %w", err)
		}
		vaultExists = exists
		return nil
	})
	if err := g.Wait(); err != nil {
		// An unanswered lookup counts as no HTTP-only cookie.
		log.Warn().Err(err).Msg("[session.Hydrate] refresh token lookup failed")
	}

	s.mu.Lock()
	// A SetTokens or ClearTokens that landed meanwhile is newer than
	// anything the sources saw.
	if s.mutations == startedAt {
		if cookie != "" {
			s.refreshToken = cookie
		}
		s.hasRefreshToken = cookie != "" || vaultExists
	}
	s.hydrated = true
	s.mu.Unlock()

	s.notify()
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the State stored by NewContext. It panics when there
// is none: every guarded handler runs with a session.
func FromContext(ctx context.Context) *State {
	s, ok := ctx.Value(ctxKey{}).(*State)
	if !ok || s == nil {
		panic("session: no session state in context")
	}
	return s
}
