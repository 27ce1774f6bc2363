package cookies

import (
	"net/http"
	"sync"
)

// RequestStore is a Store bound to a single HTTP exchange. Reads come from
// the request, overlaid with any writes made earlier in the same exchange.
// Writes are buffered per name (last write wins) until Flush emits them as
// Set-Cookie headers.
type RequestStore struct {
	mu      sync.Mutex
	r       *http.Request
	w       http.ResponseWriter
	written map[string]*http.Cookie
	pending []string
}

var _ Store = (*RequestStore)(nil)

func NewRequestStore(w http.ResponseWriter, r *http.Request) *RequestStore {
	return &RequestStore{
		r:       r,
		w:       w,
		written: make(map[string]*http.Cookie),
	}
}

func (s *RequestStore) Get(name string) (string, bool) {
	if !ValidName(name) {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.written[name]; ok {
		if isDeletion(c) {
			return "", false
		}
		return DecodeValue(c.Value), true
	}
	c, err := s.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return DecodeValue(c.Value), true
}

func (s *RequestStore) Set(name, value string, maxAgeSeconds int, opts Options) {
	if !ValidName(name) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isPending(name) {
		s.pending = append(s.pending, name)
	}
	s.written[name] = build(name, value, maxAgeSeconds, opts)
}

// Flush writes every buffered cookie to the response. It must run before
// the response header is written.
func (s *RequestStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.pending {
		http.SetCookie(s.w, s.written[name])
	}
	s.pending = nil
}

func (s *RequestStore) isPending(name string) bool {
	for _, n := range s.pending {
		if n == name {
			return true
		}
	}
	return false
}
