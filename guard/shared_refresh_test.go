package guard_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/beautyclinic/clinic-web/api"
	"github.com/beautyclinic/clinic-web/guard"
)

type countingAuth struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (a *countingAuth) Refresh(_ context.Context, token string) (api.TokenPair, error) {
	n := a.calls.Add(1)
	if a.gate != nil {
		<-a.gate
	}
	if a.err != nil {
		return api.TokenPair{}, a.err
	}
	return api.TokenPair{AccessToken: "A" + token, RefreshToken: token + "-" + string(rune('0'+n))}, nil
}

func (a *countingAuth) Bootstrap(context.Context, string) (api.Bootstrap, error) {
	return api.Bootstrap{}, nil
}

func TestSharedRefresher_CollapsesConcurrentRefreshes(t *testing.T) {
	auth := &countingAuth{gate: make(chan struct{})}
	shared := guard.NewSharedRefresher(auth, time.Minute)

	const callers = 5
	pairs := make([]api.TokenPair, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := shared.Refresh(context.Background(), "R0")
			require.NoError(t, err)
			pairs[i] = pair
		}(i)
	}

	require.Eventually(t, func() bool { return auth.calls.Load() == 1 }, time.Second, time.Millisecond)
	close(auth.gate)
	wg.Wait()

	require.EqualValues(t, 1, auth.calls.Load())
	for _, pair := range pairs {
		require.Equal(t, api.TokenPair{AccessToken: "AR0", RefreshToken: "R0-1"}, pair)
	}
}

func TestSharedRefresher_ReusesRotatedPairWithinGrace(t *testing.T) {
	auth := &countingAuth{}
	shared := guard.NewSharedRefresher(auth, 30*time.Millisecond)
	ctx := context.Background()

	first, err := shared.Refresh(ctx, "R0")
	require.NoError(t, err)
	again, err := shared.Refresh(ctx, "R0")
	require.NoError(t, err)
	require.Equal(t, first, again)
	require.EqualValues(t, 1, auth.calls.Load())

	time.Sleep(60 * time.Millisecond)
	later, err := shared.Refresh(ctx, "R0")
	require.NoError(t, err)
	require.Equal(t, "R0-2", later.RefreshToken)
	require.EqualValues(t, 2, auth.calls.Load())
}

func TestSharedRefresher_CallerGivingUpKeepsRefreshRunning(t *testing.T) {
	auth := &countingAuth{gate: make(chan struct{})}
	shared := guard.NewSharedRefresher(auth, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := shared.Refresh(ctx, "R0")
		done <- err
	}()
	require.Eventually(t, func() bool { return auth.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(auth.gate)
	pair, err := shared.Refresh(context.Background(), "R0")
	require.NoError(t, err)
	require.Equal(t, "R0-1", pair.RefreshToken)
	require.EqualValues(t, 1, auth.calls.Load())
}

func TestSharedRefresher_FailuresAreNotRemembered(t *testing.T) {
	rejected := api.APIError{Status: http.StatusUnauthorized, Message: "invalid refresh token"}
	auth := &countingAuth{err: rejected}
	shared := guard.NewSharedRefresher(auth, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := shared.Refresh(context.Background(), "R0")
		var apiErr api.APIError
		require.True(t, errors.As(err, &apiErr))
	}
	require.EqualValues(t, 2, auth.calls.Load())
}
