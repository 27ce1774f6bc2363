package cookies_test

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beautyclinic/clinic-web/cookies"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJarStore(t *testing.T) *cookies.JarStore {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	store, err := cookies.NewJarStore(jar, "http://clinic.test/")
	require.NoError(t, err)
	return store
}

func TestValidName(t *testing.T) {
	assert.True(t, cookies.ValidName("refresh_token"))
	assert.True(t, cookies.ValidName("a-B_9"))
	assert.False(t, cookies.ValidName(""))
	assert.False(t, cookies.ValidName("refresh token"))
	assert.False(t, cookies.ValidName("x;domain=evil.test"))
	assert.False(t, cookies.ValidName("name=value"))
}

func TestCheckName(t *testing.T) {
	require.NoError(t, cookies.CheckName("refresh_token"))
	err := cookies.CheckName("x;domain=evil.test")
	require.ErrorIs(t, err, clinicerrors.ErrInvalidCookieName)
	assert.Contains(t, err.Error(), "evil.test")
}

func TestEncodeDecodeValue(t *testing.T) {
	raw := "a b;c,\"d\"=é"
	encoded := cookies.EncodeValue(raw)
	assert.NotContains(t, encoded, ";")
	assert.NotContains(t, encoded, " ")
	assert.Equal(t, raw, cookies.DecodeValue(encoded))
	assert.Equal(t, "100%", cookies.DecodeValue("100%"))
}

func TestJarStoreRoundTrip(t *testing.T) {
	store := newJarStore(t)

	store.Set("refresh_token", "R 1;x", 60, cookies.DefaultOptions(false))
	got, ok := store.Get("refresh_token")
	require.True(t, ok)
	require.Equal(t, "R 1;x", got)

	store.Set("refresh_token", "", -1, cookies.DefaultOptions(false))
	_, ok = store.Get("refresh_token")
	require.False(t, ok)
}

func TestJarStoreZeroMaxAgeDeletes(t *testing.T) {
	store := newJarStore(t)
	store.Set("refresh_token", "R", 60, cookies.DefaultOptions(false))
	store.Set("refresh_token", "ignored", 0, cookies.DefaultOptions(false))

	_, ok := store.Get("refresh_token")
	require.False(t, ok)
}

func TestJarStoreRejectsInvalidNames(t *testing.T) {
	store := newJarStore(t)
	store.Set("bad name", "v", 60, cookies.DefaultOptions(false))

	_, ok := store.Get("bad name")
	require.False(t, ok)
}

func TestNewJarStoreRequiresOrigin(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	_, err = cookies.NewJarStore(jar, "/relative")
	require.Error(t, err)
}

func TestRequestStoreReadsRequestCookies(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookies.EncodeValue("from cookie")})
	store := cookies.NewRequestStore(httptest.NewRecorder(), r)

	got, ok := store.Get("refresh_token")
	require.True(t, ok)
	require.Equal(t, "from cookie", got)

	_, ok = store.Get("missing")
	require.False(t, ok)
}

func TestRequestStoreOverlaysWritesAndFlushesLastWrite(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old"})
	w := httptest.NewRecorder()
	store := cookies.NewRequestStore(w, r)

	store.Set("refresh_token", "first", 60, cookies.DefaultOptions(false))
	opts := cookies.DefaultOptions(true)
	opts.HTTPOnly = true
	store.Set("refresh_token", "second", 120, opts)

	got, ok := store.Get("refresh_token")
	require.True(t, ok)
	require.Equal(t, "second", got)

	store.Flush()
	headers := w.Result().Header.Values("Set-Cookie")
	require.Len(t, headers, 1)
	header := headers[0]
	assert.True(t, strings.HasPrefix(header, "refresh_token=second"))
	assert.Contains(t, header, "Path=/")
	assert.Contains(t, header, "Max-Age=120")
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "Secure")
	assert.Contains(t, header, "SameSite=Lax")
}

func TestRequestStoreDeletion(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old"})
	w := httptest.NewRecorder()
	store := cookies.NewRequestStore(w, r)

	store.Set("refresh_token", "", -1, cookies.DefaultOptions(false))
	_, ok := store.Get("refresh_token")
	require.False(t, ok)

	store.Flush()
	header := w.Result().Header.Get("Set-Cookie")
	assert.Contains(t, header, "Max-Age=0")
	assert.Contains(t, header, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
}

func TestRequestStoreRejectsInvalidNames(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	w := httptest.NewRecorder()
	store := cookies.NewRequestStore(w, r)

	store.Set("evil;path=/", "v", 60, cookies.DefaultOptions(false))
	store.Flush()
	require.Empty(t, w.Result().Header.Values("Set-Cookie"))
}
