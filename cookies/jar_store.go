package cookies

import (
	"fmt"
	"net/http"
	"net/url"
)

// JarStore is a Store over an http.CookieJar for one origin. It is what a
// client process uses in place of a browser's document cookies.
type JarStore struct {
	jar http.CookieJar
	url *url.URL
}

var _ Store = (*JarStore)(nil)

func NewJarStore(jar http.CookieJar, origin string) (*JarStore, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("[NewJarStore] invalid origin %q: %w", origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[NewJarStore] origin %q needs a scheme and host", origin)
	}
	return &JarStore{jar: jar, url: u}, nil
}

func (s *JarStore) Get(name string) (string, bool) {
	if !ValidName(name) {
		return "", false
	}
	for _, c := range s.jar.Cookies(s.url) {
		if c.Name == name && c.Value != "" {
			return DecodeValue(c.Value), true
		}
	}
	return "", false
}

func (s *JarStore) Set(name, value string, maxAgeSeconds int, opts Options) {
	if !ValidName(name) {
		return
	}
	s.jar.SetCookies(s.url, []*http.Cookie{build(name, value, maxAgeSeconds, opts)})
}
