package resolver

type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseNoSession
	PhaseRefreshing
	PhaseRefreshFailed
	PhasePendingBootstrap
	PhaseReady
	PhaseBootstrapFailed
)

var phaseNames = map[Phase]string{
	PhaseUnknown:          "unknown",
	PhaseNoSession:        "no_session",
	PhaseRefreshing:       "refreshing",
	PhaseRefreshFailed:    "refresh_failed",
	PhasePendingBootstrap: "pending_bootstrap",
	PhaseReady:            "ready",
	PhaseBootstrapFailed:  "bootstrap_failed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "invalid"
}

// Terminal phases end the cycle; only a new Resolver can leave them.
func (p Phase) Terminal() bool {
	return p == PhaseRefreshFailed || p == PhaseBootstrapFailed
}

// Failed phases send the user to the login page.
func (p Phase) Failed() bool {
	return p == PhaseNoSession || p.Terminal()
}

// Settled phases need no further network call to be rendered.
func (p Phase) Settled() bool {
	return p == PhaseReady || p.Failed()
}
