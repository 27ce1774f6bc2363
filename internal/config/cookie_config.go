package config

type CookieConfig interface {
	GetRefreshCookieName() string
	GetRefreshCookieMaxAge() int
	GetRefreshTokenHTTPOnly() bool
}

type Cookies struct{}

var _ CookieConfig = Cookies{}

func (Cookies) GetRefreshCookieName() string {
	return GetEnv("REFRESH_COOKIE_NAME", "refresh_token")
}

func (Cookies) GetRefreshCookieMaxAge() int {
	return 60 * 60 * 24 * 14 // 14 days
}

// GetRefreshTokenHTTPOnly reports whether the refresh token is also stored
// through the HTTP-only companion endpoint.
func (Cookies) GetRefreshTokenHTTPOnly() bool {
	return GetEnvAsBool("REFRESH_TOKEN_HTTP_ONLY", true)
}
