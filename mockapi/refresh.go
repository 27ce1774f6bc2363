package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
)

// storedRefreshToken is the server side record behind an opaque refresh
// token. Clients only ever see Token.
type storedRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

// refreshStore issues, rotates and expires refresh tokens. A user holds at
// most one live refresh token.
type refreshStore struct {
	mu      sync.RWMutex
	tokens  map[string]*storedRefreshToken
	userIDs map[string]string // user ID to token
	length  int
	expiry  time.Duration
	now     func() time.Time
}

func newRefreshStore(length int, expiry time.Duration, now func() time.Time) *refreshStore {
	return &refreshStore{
		tokens:  make(map[string]*storedRefreshToken),
		userIDs: make(map[string]string),
		length:  length,
		expiry:  expiry,
		now:     now,
	}
}

// Create generates a new refresh token for userID, replacing any existing one.
func (rs *refreshStore) Create(userID string) (string, error) {
	tokenBytes := make([]byte, rs.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if existing, ok := rs.userIDs[userID]; ok {
		delete(rs.tokens, existing)
	}
	rs.tokens[token] = &storedRefreshToken{Token: token, UserID: userID, Iat: rs.now()}
	rs.userIDs[userID] = token
	return token, nil
}

// Consume validates token and removes it, returning its owner. Refresh
// tokens are single use; the caller issues a replacement.
func (rs *refreshStore) Consume(token string) (string, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rt, ok := rs.tokens[token]
	if !ok {
		return "", clinicerrors.ErrInvalidToken
	}
	delete(rs.tokens, token)
	delete(rs.userIDs, rt.UserID)

	if rs.now().Sub(rt.Iat) > rs.expiry {
		return "", clinicerrors.Wrapf(clinicerrors.ErrInvalidToken, "refresh token expired")
	}
	return rt.UserID, nil
}

func (rs *refreshStore) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.tokens)
}
