package guard_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/companion"
	"github.com/beautyclinic/clinic-web/cookies"
	"github.com/beautyclinic/clinic-web/guard"
	"github.com/beautyclinic/clinic-web/mockapi"
	"github.com/beautyclinic/clinic-web/resolver"
	"github.com/beautyclinic/clinic-web/session"
)

type stubAuth struct {
	pair    api.TokenPair
	boot    api.Bootstrap
	refErr  error
	bootErr error
}

func (s stubAuth) Refresh(context.Context, string) (api.TokenPair, error) {
	return s.pair, s.refErr
}

func (s stubAuth) Bootstrap(context.Context, string) (api.Bootstrap, error) {
	return s.boot, s.bootErr
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func newState(t *testing.T, refreshCookie string) *session.State {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	store, err := cookies.NewJarStore(jar, "http://clinic.test")
	require.NoError(t, err)
	if refreshCookie != "" {
		store.Set(session.DefaultCookieName, refreshCookie, 60, cookies.DefaultOptions(false))
	}
	return session.New(store)
}

func startGuard(t *testing.T, state *session.State, auth resolver.Authenticator) (*guard.Guard, *resolver.Resolver, *recordingNavigator) {
	t.Helper()
	res := resolver.New(state, auth)
	t.Cleanup(res.Close)
	nav := &recordingNavigator{}
	g := guard.New(res, nav)
	require.Equal(t, guard.ViewLoading, g.Render().Kind)

	res.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := res.Wait(ctx)
	require.NoError(t, err)
	return g, res, nav
}

func TestGuard_ColdStartRedirectsOnce(t *testing.T) {
	g, _, nav := startGuard(t, newState(t, ""), stubAuth{})

	require.Equal(t, guard.ViewNone, g.Render().Kind)
	require.Equal(t, guard.ViewNone, g.Render().Kind)
	require.Equal(t, guard.ViewNone, g.Render().Kind)
	require.Equal(t, []string{"/login"}, nav.calls())
}

func TestGuard_RendersContentWhenReady(t *testing.T) {
	boot := api.Bootstrap{
		Profile: api.UserProfile{ID: "USR-9", FullName: "X", Phone: "09120000000", Role: api.RoleOwner},
		Clinic:  api.ClinicProfile{ID: "CL-9", Name: "Y", Timezone: "Asia/Tehran"},
	}
	auth := stubAuth{pair: api.TokenPair{AccessToken: "token-new", RefreshToken: "refresh-cookie"}, boot: boot}
	g, _, nav := startGuard(t, newState(t, "refresh-old"), auth)

	view := g.Render()
	require.Equal(t, guard.ViewContent, view.Kind)
	require.Equal(t, boot, *view.Bootstrap)
	require.Empty(t, nav.calls())
}

func TestGuard_RefreshFailureRedirectsOnce(t *testing.T) {
	auth := stubAuth{refErr: api.APIError{Status: http.StatusUnauthorized, Message: "expired"}}
	g, _, nav := startGuard(t, newState(t, "refresh-old"), auth)

	for i := 0; i < 3; i++ {
		require.Equal(t, guard.ViewNone, g.Render().Kind)
	}
	require.Equal(t, []string{"/login"}, nav.calls())
}

func TestGuard_RedirectsPerFailureTransition(t *testing.T) {
	state := newState(t, "")
	g, res, nav := startGuard(t, state, stubAuth{boot: api.Bootstrap{Profile: api.UserProfile{ID: "USR-1"}}})
	require.Equal(t, guard.ViewNone, g.Render().Kind)

	state.SetTokens(context.Background(), &api.TokenPair{AccessToken: "A"})
	_, err := res.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, guard.ViewContent, g.Render().Kind)

	state.ClearTokens(context.Background())
	require.Equal(t, guard.ViewNone, g.Render().Kind)
	require.Equal(t, guard.ViewNone, g.Render().Kind)
	require.Equal(t, []string{"/login", "/login"}, nav.calls())
}

func TestGuard_Run(t *testing.T) {
	state := newState(t, "")
	res := resolver.New(state, stubAuth{})
	defer res.Close()
	nav := &recordingNavigator{}
	g := guard.New(res, nav, guard.WithLoginPath("/signin"))

	ctx, cancel := context.WithCancel(context.Background())
	views := make(chan guard.View, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx, func(v guard.View) { views <- v })
	}()

	require.Equal(t, guard.ViewLoading, (<-views).Kind)
	res.Start(context.Background())
	require.Equal(t, guard.ViewNone, (<-views).Kind)
	cancel()
	<-done
	require.Equal(t, []string{"/signin"}, nav.calls())
}

func TestBootstrapFromContext(t *testing.T) {
	require.Panics(t, func() { guard.BootstrapFromContext(context.Background()) })

	boot := api.Bootstrap{Clinic: api.ClinicProfile{ID: "CL-1"}}
	ctx := guard.WithBootstrap(context.Background(), boot)
	require.Equal(t, boot, guard.BootstrapFromContext(ctx))
}

type middlewareFixture struct {
	mock    *mockapi.Server
	handler http.Handler
}

func setupMiddleware(t *testing.T, timeout time.Duration) *middlewareFixture {
	t.Helper()
	mock := mockapi.New()
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	mw := guard.Middleware(guard.MiddlewareConfig{
		Auth:     client,
		Cookie:   companion.CookieSettings{Name: "refresh_token", MaxAge: 1209600},
		HTTPOnly: true,
		Timeout:  timeout,
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boot := guard.BootstrapFromContext(r.Context())
		state := session.FromContext(r.Context())
		require.NotEmpty(t, state.AccessToken())
		_, _ = w.Write([]byte("clinic " + boot.Clinic.ID))
	})
	return &middlewareFixture{mock: mock, handler: mw(next)}
}

func (f *middlewareFixture) get(cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookie})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_NoCookieRedirects(t *testing.T) {
	f := setupMiddleware(t, time.Second)
	rec := f.get("")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	require.Zero(t, f.mock.Calls(http.MethodPost, api.RouteRefresh))
	require.Zero(t, f.mock.Calls(http.MethodGet, api.RouteBootstrap))
}

func TestMiddleware_RefreshAndServe(t *testing.T) {
	f := setupMiddleware(t, time.Second)
	pair, err := f.mock.IssueTokens()
	require.NoError(t, err)

	rec := f.get(pair.RefreshToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "clinic CL-20", rec.Body.String())

	headers := rec.Result().Header.Values("Set-Cookie")
	require.Len(t, headers, 1)
	require.Contains(t, headers[0], "HttpOnly")
	require.NotContains(t, headers[0], pair.RefreshToken)
	require.Equal(t, 1, f.mock.Calls(http.MethodPost, api.RouteRefresh))
}

func TestMiddleware_InvalidCookieClearsAndRedirects(t *testing.T) {
	f := setupMiddleware(t, time.Second)
	rec := f.get("stale")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	headers := rec.Result().Header.Values("Set-Cookie")
	require.Len(t, headers, 1)
	require.Contains(t, headers[0], "Max-Age=0")
	require.Zero(t, f.mock.Calls(http.MethodGet, api.RouteBootstrap))
}

func TestMiddleware_SlowBackendRendersLoading(t *testing.T) {
	f := setupMiddleware(t, 20*time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	f.mock.Use(http.MethodPost, api.RouteRefresh, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		mockapi.Message(http.StatusUnauthorized, "late")(w, r)
	})

	rec := f.get("anything")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `http-equiv="refresh"`)
	require.Empty(t, rec.Header().Get("Location"))
}

func TestMiddleware_ConcurrentRequestsShareRefresh(t *testing.T) {
	f := setupMiddleware(t, 2*time.Second)
	pair, err := f.mock.IssueTokens()
	require.NoError(t, err)

	const tabs = 4
	recs := make([]*httptest.ResponseRecorder, tabs)
	var wg sync.WaitGroup
	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i] = f.get(pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, f.mock.Calls(http.MethodPost, api.RouteRefresh))
	want := recs[0].Result().Header.Values("Set-Cookie")
	require.Len(t, want, 1)
	require.NotContains(t, want[0], pair.RefreshToken)
	require.NotContains(t, want[0], "Max-Age=0")
	for _, rec := range recs {
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, want, rec.Result().Header.Values("Set-Cookie"))
	}
}

func TestMiddleware_SlowRefreshRecoversOnReload(t *testing.T) {
	f := setupMiddleware(t, 20*time.Millisecond)
	f.mock.Delay(http.MethodPost, api.RouteRefresh, 80*time.Millisecond)
	pair, err := f.mock.IssueTokens()
	require.NoError(t, err)

	rec := f.get(pair.RefreshToken)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Empty(t, rec.Result().Header.Values("Set-Cookie"))

	// The loading page reloads with the cookie the browser still holds.
	var reload *httptest.ResponseRecorder
	require.Eventually(t, func() bool {
		reload = f.get(pair.RefreshToken)
		return reload.Code == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	headers := reload.Result().Header.Values("Set-Cookie")
	require.Len(t, headers, 1)
	require.NotContains(t, headers[0], pair.RefreshToken)
	require.NotContains(t, headers[0], "Max-Age=0")
	require.Equal(t, 1, f.mock.Calls(http.MethodPost, api.RouteRefresh))
}
