package guard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/companion"
	"github.com/beautyclinic/clinic-web/cookies"
	"github.com/beautyclinic/clinic-web/internal/metrics"
	"github.com/beautyclinic/clinic-web/resolver"
	"github.com/beautyclinic/clinic-web/session"
)

// MiddlewareConfig wires a server rendered guard. Each request gets its
// own session, resolved from the request cookies.
type MiddlewareConfig struct {
	Auth      resolver.Authenticator
	Cookie    companion.CookieSettings
	LoginPath string
	// HTTPOnly also stores the refresh token in the HTTP-only cookie.
	HTTPOnly bool
	// Timeout bounds the wait for a settled session before Loading is
	// served.
	Timeout time.Duration
	// RotationGrace is how long a rotated token pair is reused for
	// requests still sending the replaced refresh token. See
	// SharedRefresher.
	RotationGrace time.Duration
	Loading       http.Handler
	Metrics       *metrics.SessionMetrics
}

// Middleware resolves the session for every request. Settled requests
// either reach next with the session and bootstrap in the context or are
// redirected to the login page. Refreshes go through one SharedRefresher
// for all requests handled by the returned middleware.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Loading == nil {
		cfg.Loading = http.HandlerFunc(loadingPage)
	}
	auth := NewSharedRefresher(cfg.Auth, cfg.RotationGrace)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := cookies.NewRequestStore(w, r)
			opts := []session.Option{
				session.WithCookieName(cfg.Cookie.Name),
				session.WithMaxAge(cfg.Cookie.MaxAge),
				session.WithSecure(cfg.Cookie.Secure),
			}
			if cfg.HTTPOnly {
				opts = append(opts, session.WithVault(companion.NewRequestVault(store, cfg.Cookie)))
			}
			state := session.New(store, opts...)

			res := resolver.New(state, auth, resolver.WithMetrics(cfg.Metrics))
			defer res.Close()
			res.Start(r.Context())

			waitCtx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()
			if _, err := res.Wait(waitCtx); err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("session not settled in time")
			}

			nav := &redirectNavigator{}
			view := New(res, nav, WithLoginPath(cfg.LoginPath), WithMetrics(cfg.Metrics)).Render()
			// Failures clear the session on their own goroutine; let that
			// land before the cookies go out.
			if view.Kind == ViewNone {
				res.Drain()
			}
			store.Flush()

			switch view.Kind {
			case ViewContent:
				ctx := session.NewContext(r.Context(), state)
				ctx = WithBootstrap(ctx, *view.Bootstrap)
				next.ServeHTTP(w, r.WithContext(ctx))
			case ViewNone:
				http.Redirect(w, r, nav.path, http.StatusSeeOther)
			default:
				cfg.Loading.ServeHTTP(w, r)
			}
		})
	}
}

// redirectNavigator records the navigation so the middleware can answer
// with a redirect.
type redirectNavigator struct {
	path string
}

func (n *redirectNavigator) Replace(path string) {
	n.path = path
}

func loadingPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = fmt.Fprint(w, `<!doctype html><html><head><meta http-equiv="refresh" content="1"></head><body><p>Loading…</p></body></html>`)
}
