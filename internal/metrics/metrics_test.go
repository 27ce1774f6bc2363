package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestSessionMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSessionMetrics(reg)

	m.ObserveRefresh(nil, false)
	m.ObserveRefresh(errors.New("401"), false)
	m.ObserveRefresh(errors.New("dial"), true)
	m.ObserveBootstrap(nil, false)
	m.ObserveRedirect("no_session")
	m.ObserveResolved("ready", 0.2)

	families, err := reg.Gather()
	require.NoError(t, err)
	series := map[string]int{}
	for _, mf := range families {
		series[mf.GetName()] = len(mf.GetMetric())
	}
	require.Equal(t, 3, series["clinic_session_refresh_total"])
	require.Equal(t, 1, series["clinic_session_bootstrap_total"])
	require.Equal(t, 1, series["clinic_session_login_redirect_total"])
	require.Equal(t, 1, series["clinic_session_resolve_latency_seconds"])
}

func TestSessionMetricsNilSafe(t *testing.T) {
	var m *SessionMetrics
	m.ObserveRefresh(nil, false)
	m.ObserveBootstrap(nil, false)
	m.ObserveRedirect("no_session")
	m.ObserveResolved("ready", 0.1)
}
