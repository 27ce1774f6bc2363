package guard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/resolver"
)

const (
	// DefaultRotationGrace is how long a rotated pair is handed to requests
	// still presenting the refresh token it replaced.
	DefaultRotationGrace = 30 * time.Second

	sharedRefreshTimeout = 30 * time.Second
)

// SharedRefresher is an Authenticator for server rendered sessions. Many
// requests can carry the same refresh token at once (tabs, prefetches,
// reloads of a loading page), but the backend accepts each token once.
// Concurrent refreshes of one token share a single backend call, and the
// rotated pair is remembered for the grace period so later requests with
// the old cookie receive it instead of a rejection.
//
// The backend call is not bound to any single request: a request that
// stops waiting leaves it running so its result still lands in the cache.
type SharedRefresher struct {
	auth  resolver.Authenticator
	grace time.Duration
	now   func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	rotated map[string]rotatedPair
}

type rotatedPair struct {
	pair    api.TokenPair
	expires time.Time
}

var _ resolver.Authenticator = (*SharedRefresher)(nil)

// NewSharedRefresher wraps auth. A grace <= 0 uses DefaultRotationGrace.
func NewSharedRefresher(auth resolver.Authenticator, grace time.Duration) *SharedRefresher {
	if grace <= 0 {
		grace = DefaultRotationGrace
	}
	return &SharedRefresher{
		auth:    auth,
		grace:   grace,
		now:     time.Now,
		rotated: make(map[string]rotatedPair),
	}
}

func (s *SharedRefresher) Refresh(ctx context.Context, refreshToken string) (api.TokenPair, error) {
	if refreshToken == "" {
		return s.auth.Refresh(ctx, refreshToken)
	}
	if pair, ok := s.lookup(refreshToken); ok {
		return pair, nil
	}

	ch := s.group.DoChan(refreshToken, func() (any, error) {
		if pair, ok := s.lookup(refreshToken); ok {
			return pair, nil
		}
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRefreshTimeout)
		defer cancel()
		pair, err := s.auth.Refresh(callCtx, refreshToken)
		if err != nil {
			return api.TokenPair{}, err
		}
		s.remember(refreshToken, pair)
		return pair, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return api.TokenPair{}, res.Err
		}
		if res.Shared {
			log.Debug().Msg("joined in-flight session refresh")
		}
		return res.Val.(api.TokenPair), nil
	case <-ctx.Done():
		return api.TokenPair{}, ctx.Err()
	}
}

func (s *SharedRefresher) Bootstrap(ctx context.Context, accessToken string) (api.Bootstrap, error) {
	return s.auth.Bootstrap(ctx, accessToken)
}

func (s *SharedRefresher) lookup(refreshToken string) (api.TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.rotated[refreshToken]
	if !ok {
		return api.TokenPair{}, false
	}
	if !s.now().Before(entry.expires) {
		delete(s.rotated, refreshToken)
		return api.TokenPair{}, false
	}
	return entry.pair, true
}

// remember keeps pair for requests still holding old. A pair that did not
// rotate the refresh token needs no entry: old keeps working.
func (s *SharedRefresher) remember(old string, pair api.TokenPair) {
	if pair.RefreshToken == "" || pair.RefreshToken == old {
		return
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, entry := range s.rotated {
		if !now.Before(entry.expires) {
			delete(s.rotated, token)
		}
	}
	s.rotated[old] = rotatedPair{pair: pair, expires: now.Add(s.grace)}
}
