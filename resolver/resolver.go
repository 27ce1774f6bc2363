// Package resolver turns the token session into a bootstrapped, signed-in
// context or a redirect to the login page.
//
// A Resolver decides, on every session change, whether to refresh the
// access token from the refresh token, fetch the bootstrap for the current
// access token, or give up. It issues at most one refresh per episode
// without an access token and one bootstrap per access token; completions
// that arrive after Close or for a superseded token are dropped.
package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beautyclinic/clinic-web/api"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/beautyclinic/clinic-web/internal/metrics"
	"github.com/beautyclinic/clinic-web/session"
)

// Authenticator is the slice of the backend the resolver calls.
// *api.Client implements it.
type Authenticator interface {
	Refresh(ctx context.Context, refreshToken string) (api.TokenPair, error)
	Bootstrap(ctx context.Context, accessToken string) (api.Bootstrap, error)
}

var _ Authenticator = (*api.Client)(nil)

var NowTimeFunc = time.Now

// Status is the resolver's observable state. Seq increases on every change.
type Status struct {
	Phase     Phase
	Bootstrap *api.Bootstrap
	Err       error
	Seq       uint64
}

// Offline reports that the last failure never reached the backend, as
// opposed to the backend rejecting the session.
func (s Status) Offline() bool {
	return s.Err != nil && api.IsTransport(s.Err)
}

type Option func(*Resolver)

func WithMetrics(m *metrics.SessionMetrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

type Resolver struct {
	state   *session.State
	auth    Authenticator
	metrics *metrics.SessionMetrics
	now     func() time.Time

	mu      sync.Mutex
	status  Status
	changed chan struct{}

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	startedAt   time.Time
	closed      bool

	refreshAttempted bool
	refreshInFlight  bool
	bootstrapToken   string
	cancelBootstrap  context.CancelFunc

	// applyMu serialises session writes from completions against Close.
	applyMu sync.Mutex
	wg      sync.WaitGroup
}

// New panics when state is nil.
func New(state *session.State, auth Authenticator, opts ...Option) *Resolver {
	if state == nil {
		panic("resolver: nil session state")
	}
	r := &Resolver{
		state:   state,
		auth:    auth,
		now:     NowTimeFunc,
		changed: make(chan struct{}),
		ctx:     context.Background(),
		cancel:  func() {},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.startedAt = r.now()
	return r
}

// Start subscribes to session changes, hydrates the session if needed and
// runs the first evaluation. Network calls use ctx.
func (r *Resolver) Start(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.startedAt = r.now()
	r.unsubscribe = r.state.OnChange(func(session.Snapshot) {
		r.Evaluate()
	})
	runCtx := r.ctx
	r.mu.Unlock()

	if !r.state.IsHydrated() {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.state.Hydrate(runCtx)
			// Hydrate notifies only the first time it runs.
			r.Evaluate()
		}()
	}
	r.Evaluate()
}

// Evaluate moves the state machine forward from the current session.
// It is idempotent and safe to call from any goroutine.
func (r *Resolver) Evaluate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.status.Phase.Terminal() {
		return
	}

	snap := r.state.Snapshot()
	if !snap.IsHydrated {
		r.setLocked(PhaseUnknown, nil, nil)
		return
	}

	if snap.AccessToken != "" {
		r.refreshAttempted = false
		if r.bootstrapToken != snap.AccessToken {
			r.bootstrapToken = snap.AccessToken
			r.setLocked(PhasePendingBootstrap, nil, nil)
			r.startBootstrapLocked(snap.AccessToken)
		}
		return
	}

	r.dropBootstrapLocked()
	switch {
	case r.refreshInFlight:
		r.setLocked(PhaseRefreshing, nil, nil)
	case snap.HasRefreshToken && !r.refreshAttempted:
		r.refreshAttempted = true
		r.refreshInFlight = true
		r.setLocked(PhaseRefreshing, nil, nil)
		r.startRefreshLocked()
	default:
		r.setLocked(PhaseNoSession, nil, nil)
	}
}

func (r *Resolver) startRefreshLocked() {
	ctx := r.ctx
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		// Read at call time, not when the refresh was scheduled.
		pair, err := r.auth.Refresh(ctx, r.state.RefreshToken())
		r.completeRefresh(ctx, pair, err)
	}()
}

func (r *Resolver) completeRefresh(ctx context.Context, pair api.TokenPair, err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.refreshInFlight = false
	r.metrics.ObserveRefresh(err, api.IsTransport(err))
	if err != nil {
		log.Warn().Err(err).Bool("offline", api.IsTransport(err)).Msg("session refresh failed")
		r.setLocked(PhaseRefreshFailed, nil, fmt.Errorf("%w: %w", clinicerrors.ErrRefreshFailed, err))
		r.mu.Unlock()
		r.apply(func() { r.state.ClearTokens(ctx) })
		return
	}
	r.mu.Unlock()

	if r.apply(func() { r.state.SetTokens(ctx, &pair) }) {
		r.Evaluate()
	}
}

func (r *Resolver) startBootstrapLocked(accessToken string) {
	r.dropBootstrapLocked()
	ctx, cancel := context.WithCancel(r.ctx)
	r.cancelBootstrap = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		boot, err := r.auth.Bootstrap(ctx, accessToken)
		r.completeBootstrap(accessToken, boot, err)
	}()
}

// dropBootstrapLocked abandons an in-flight bootstrap; its completion
// will no longer match bootstrapToken.
func (r *Resolver) dropBootstrapLocked() {
	if r.cancelBootstrap != nil {
		r.cancelBootstrap()
		r.cancelBootstrap = nil
	}
	if r.state.AccessToken() == "" {
		r.bootstrapToken = ""
	}
}

func (r *Resolver) completeBootstrap(accessToken string, boot api.Bootstrap, err error) {
	r.mu.Lock()
	if r.closed || r.bootstrapToken != accessToken {
		r.mu.Unlock()
		log.Debug().Msg("discarding stale bootstrap")
		return
	}
	r.cancelBootstrap = nil
	r.metrics.ObserveBootstrap(err, api.IsTransport(err))
	if err != nil {
		log.Warn().Err(err).Bool("offline", api.IsTransport(err)).Msg("session bootstrap failed")
		r.setLocked(PhaseBootstrapFailed, nil, fmt.Errorf("%w: %w", clinicerrors.ErrBootstrapFailed, err))
		ctx := r.ctx
		r.mu.Unlock()
		r.apply(func() { r.state.ClearTokens(ctx) })
		return
	}
	r.setLocked(PhaseReady, &boot, nil)
	r.mu.Unlock()
}

// apply runs fn against the session unless the resolver is closed and
// reports whether it ran. Close waits for a running apply.
func (r *Resolver) apply(fn func()) bool {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		log.Debug().Msg("discarding completion after close")
		return false
	}
	fn()
	return true
}

func (r *Resolver) setLocked(phase Phase, boot *api.Bootstrap, err error) {
	if r.status.Phase == phase && r.status.Bootstrap == boot && r.status.Err == err {
		return
	}
	r.status = Status{Phase: phase, Bootstrap: boot, Err: err, Seq: r.status.Seq + 1}
	close(r.changed)
	r.changed = make(chan struct{})

	log.Debug().Str("phase", phase.String()).Uint64("seq", r.status.Seq).Msg("session phase changed")
	if phase.Settled() {
		r.metrics.ObserveResolved(phase.String(), r.now().Sub(r.startedAt).Seconds())
	}
}

func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Changed returns a channel closed at the next status change.
func (r *Resolver) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Wait blocks until the status is settled, ctx is done or the resolver is
// closed, returning the latest status.
func (r *Resolver) Wait(ctx context.Context) (Status, error) {
	for {
		r.mu.Lock()
		st, ch, closed := r.status, r.changed, r.closed
		r.mu.Unlock()

		if st.Phase.Settled() {
			return st, nil
		}
		if closed {
			return st, clinicerrors.ErrSessionClosed
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ch:
		}
	}
}

// Close stops the resolver. Calls in flight are cancelled and their
// results ignored; once Close returns the session is no longer written.
// Close does not wait for the calls themselves; use Drain for that. It must
// not be called from a session OnChange listener.
func (r *Resolver) Close() {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancel()
	if r.cancelBootstrap != nil {
		r.cancelBootstrap()
	}
	unsubscribe := r.unsubscribe
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Drain waits for every goroutine the resolver started to return.
func (r *Resolver) Drain() {
	r.wg.Wait()
}
