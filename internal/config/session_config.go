package config

import "time"

type SessionConfig interface {
	GetLoginPath() string
	GetAppPath() string
	GetSessionResolveTimeout() time.Duration
	GetAPITimeout() time.Duration
	GetRotationGrace() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetLoginPath() string {
	return "/login"
}

func (Session) GetAppPath() string {
	return "/app"
}

// GetSessionResolveTimeout bounds how long a guarded page waits for the
// session before it renders the loading page instead.
func (Session) GetSessionResolveTimeout() time.Duration {
	return GetEnvAsDuration("SESSION_RESOLVE_TIMEOUT", 5*time.Second)
}

func (Session) GetAPITimeout() time.Duration {
	return GetEnvAsDuration("API_TIMEOUT", 10*time.Second)
}

// GetRotationGrace is how long a rotated refresh token pair is handed to
// requests that still carry the previous refresh token.
func (Session) GetRotationGrace() time.Duration {
	return GetEnvAsDuration("REFRESH_ROTATION_GRACE", 30*time.Second)
}
