// Package guard gates protected pages on a resolved session.
package guard

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/api"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/beautyclinic/clinic-web/internal/metrics"
	"github.com/beautyclinic/clinic-web/resolver"
)

const DefaultLoginPath = "/login"

// Navigator performs a client side navigation that replaces the current
// location.
type Navigator interface {
	Replace(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Replace(path string) {
	f(path)
}

type ViewKind int

const (
	// ViewLoading is shown while the session is still resolving.
	ViewLoading ViewKind = iota
	// ViewContent renders the protected page with Bootstrap.
	ViewContent
	// ViewNone renders nothing; a redirect has been issued.
	ViewNone
)

func (k ViewKind) String() string {
	switch k {
	case ViewLoading:
		return "loading"
	case ViewContent:
		return "content"
	default:
		return "none"
	}
}

type View struct {
	Kind      ViewKind
	Bootstrap *api.Bootstrap
}

type Option func(*Guard)

func WithLoginPath(path string) Option {
	return func(g *Guard) {
		g.loginPath = path
	}
}

func WithMetrics(m *metrics.SessionMetrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

type Guard struct {
	resolver  *resolver.Resolver
	nav       Navigator
	loginPath string
	metrics   *metrics.SessionMetrics

	mu           sync.Mutex
	redirected   bool
	redirectedAt uint64
}

func New(res *resolver.Resolver, nav Navigator, opts ...Option) *Guard {
	if res == nil || nav == nil {
		panic("guard: resolver and navigator are required")
	}
	g := &Guard{
		resolver:  res,
		nav:       nav,
		loginPath: DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render maps the resolver status to a view. The first Render after a
// failure transition navigates to the login page; later ones only return
// ViewNone.
func (g *Guard) Render() View {
	st := g.resolver.Status()
	switch {
	case st.Phase == resolver.PhaseReady && st.Bootstrap != nil:
		return View{Kind: ViewContent, Bootstrap: st.Bootstrap}
	case st.Phase.Failed():
		g.redirectOnce(st)
		return View{Kind: ViewNone}
	default:
		return View{Kind: ViewLoading}
	}
}

func (g *Guard) redirectOnce(st resolver.Status) {
	g.mu.Lock()
	if g.redirected && g.redirectedAt == st.Seq {
		g.mu.Unlock()
		return
	}
	g.redirected = true
	g.redirectedAt = st.Seq
	g.mu.Unlock()

	log.Info().Str("phase", st.Phase.String()).Bool("offline", st.Offline()).Msg("redirecting to login")
	g.metrics.ObserveRedirect(st.Phase.String())
	g.nav.Replace(g.loginPath)
}

// Run renders once per resolver change until ctx is done, handing every
// view to render.
func (g *Guard) Run(ctx context.Context, render func(View)) {
	for {
		changed := g.resolver.Changed()
		render(g.Render())
		select {
		case <-ctx.Done():
			return
		case <-changed:
		}
	}
}

type bootstrapKey struct{}

// WithBootstrap returns a copy of ctx carrying boot for the protected
// handlers below the guard.
func WithBootstrap(ctx context.Context, boot api.Bootstrap) context.Context {
	return context.WithValue(ctx, bootstrapKey{}, boot)
}

// BootstrapFromContext returns the bootstrap stored by WithBootstrap. It
// panics outside a guarded handler.
func BootstrapFromContext(ctx context.Context) api.Bootstrap {
	boot, ok := ctx.Value(bootstrapKey{}).(api.Bootstrap)
	if !ok {
		panic(clinicerrors.ErrMissingBootstrap)
	}
	return boot
}
