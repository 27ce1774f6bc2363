package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics exposes counters/histograms for session resolution.
type SessionMetrics struct {
	refreshTotal   *prometheus.CounterVec
	bootstrapTotal *prometheus.CounterVec
	redirectTotal  *prometheus.CounterVec
	resolveLatency *prometheus.HistogramVec
}

func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Silent refresh attempts by outcome",
		}, []string{"outcome"}),
		bootstrapTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "session",
			Name:      "bootstrap_total",
			Help:      "Bootstrap fetches by outcome",
		}, []string{"outcome"}),
		redirectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "session",
			Name:      "login_redirect_total",
			Help:      "Redirects to the login page by the phase that caused them",
		}, []string{"phase"}),
		resolveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "session",
			Name:      "resolve_latency_seconds",
			Help:      "Time from start to a settled session phase",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.refreshTotal, m.bootstrapTotal, m.redirectTotal, m.resolveLatency)
	return m
}

func outcome(err error, offline bool) string {
	switch {
	case err == nil:
		return "success"
	case offline:
		return "offline"
	default:
		return "rejected"
	}
}

// ObserveRefresh counts a refresh completion. offline marks a transport
// failure as opposed to a rejection.
func (m *SessionMetrics) ObserveRefresh(err error, offline bool) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome(err, offline)).Inc()
}

func (m *SessionMetrics) ObserveBootstrap(err error, offline bool) {
	if m == nil {
		return
	}
	m.bootstrapTotal.WithLabelValues(outcome(err, offline)).Inc()
}

func (m *SessionMetrics) ObserveRedirect(phase string) {
	if m == nil {
		return
	}
	m.redirectTotal.WithLabelValues(phase).Inc()
}

func (m *SessionMetrics) ObserveResolved(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.resolveLatency.WithLabelValues(phase).Observe(seconds)
}
