// Package cookies reads and writes named cookies for the session layer.
//
// Every operation degrades to a no-op instead of failing: names outside
// [A-Za-z0-9_-] are rejected silently (no write, absent on read) so a caller
// can never inject attributes into a Set-Cookie header.
package cookies

import (
	"net/http"
	"net/url"
	"regexp"
	"time"

	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Options are the cookie attributes applied on write.
type Options struct {
	Path     string
	SameSite http.SameSite
	Secure   bool
	HTTPOnly bool
}

// DefaultOptions is a path=/ same-site=lax cookie, secure when requested.
func DefaultOptions(secure bool) Options {
	return Options{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// Store is a single-origin cookie jar as seen by the session layer.
type Store interface {
	// Get returns the decoded value of the named cookie.
	Get(name string) (string, bool)
	// Set writes the cookie; maxAgeSeconds <= 0 deletes it.
	Set(name, value string, maxAgeSeconds int, opts Options)
}

// ValidName reports whether name is an acceptable cookie name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// CheckName is ValidName as an error, for configuration that must be
// rejected up front rather than ignored on every write.
func CheckName(name string) error {
	if !ValidName(name) {
		return clinicerrors.Wrapf(clinicerrors.ErrInvalidCookieName, "%q", name)
	}
	return nil
}

// EncodeValue percent-encodes a cookie value.
func EncodeValue(value string) string {
	return url.PathEscape(value)
}

// DecodeValue reverses EncodeValue. Values that are not valid
// percent-encoding are returned unchanged.
func DecodeValue(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// build creates the http.Cookie for a write. Deletions carry an expiry in
// the past.
func build(name, value string, maxAgeSeconds int, opts Options) *http.Cookie {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	c := &http.Cookie{
		Name:     name,
		Value:    EncodeValue(value),
		Path:     opts.Path,
		SameSite: opts.SameSite,
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
	}
	if maxAgeSeconds > 0 {
		c.MaxAge = maxAgeSeconds
		return c
	}
	c.Value = ""
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

func isDeletion(c *http.Cookie) bool {
	return c.MaxAge < 0
}
