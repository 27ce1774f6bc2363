package companion

import (
	"context"

	"github.com/beautyclinic/clinic-web/cookies"
	"github.com/beautyclinic/clinic-web/session"
)

// RequestVault is the in-process Vault used while rendering on the server:
// it reads and writes the HTTP-only cookie through the request's own
// cookie store instead of a round trip to the companion endpoint.
type RequestVault struct {
	store  cookies.Store
	cookie CookieSettings
}

var _ session.Vault = (*RequestVault)(nil)

func NewRequestVault(store cookies.Store, cookie CookieSettings) *RequestVault {
	return &RequestVault{store: store, cookie: cookie}
}

func (v *RequestVault) Exists(context.Context) (bool, error) {
	_, ok := v.store.Get(v.cookie.Name)
	return ok, nil
}

func (v *RequestVault) Save(_ context.Context, refreshToken string) error {
	v.store.Set(v.cookie.Name, refreshToken, v.cookie.MaxAge, v.cookie.options())
	return nil
}

func (v *RequestVault) Clear(context.Context) error {
	v.store.Set(v.cookie.Name, "", 0, v.cookie.options())
	return nil
}
