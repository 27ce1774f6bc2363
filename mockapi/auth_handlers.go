package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/beautyclinic/clinic-web/api"
	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
)

const (
	otpExpiry         = 10 * time.Minute
	refreshCookieName = "refresh_token"
)

type otpChallenge struct {
	ID        string
	Purpose   api.OTPPurpose
	CodeHash  []byte
	ExpiresAt time.Time
}

func (s *Server) requestOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Phone   string         `json:"phone"`
		Purpose api.OTPPurpose `json:"purpose"`
	}
	if err := decodeBody(r, &in); err != nil || strings.TrimSpace(in.Phone) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "phone is required"})
		return
	}
	if in.Purpose == "" {
		in.Purpose = api.PurposeLogin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.otpCode), bcrypt.MinCost)
	if err != nil {
		log.Err(err).Msg("[mockapi.requestOTP] hash code")
		writeMessage(w, http.StatusInternalServerError, "unable to issue code")
		return
	}
	challenge := otpChallenge{
		ID:        uuid.NewString(),
		Purpose:   in.Purpose,
		CodeHash:  hash,
		ExpiresAt: s.now().Add(otpExpiry),
	}

	s.mu.Lock()
	s.otps[in.Phone] = challenge
	s.mu.Unlock()

	log.Debug().Str("challenge", challenge.ID).Str("purpose", string(in.Purpose)).Msg("otp issued")
	writeMessage(w, http.StatusOK, "code sent")
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Phone   string         `json:"phone"`
		Code    string         `json:"code"`
		Purpose api.OTPPurpose `json:"purpose"`
	}
	if err := decodeBody(r, &in); err != nil || in.Phone == "" || in.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "phone and code are required"})
		return
	}
	if in.Purpose == "" {
		in.Purpose = api.PurposeLogin
	}

	s.mu.Lock()
	challenge, ok := s.otps[in.Phone]
	if ok && challenge.Purpose == in.Purpose {
		delete(s.otps, in.Phone)
	}
	userID := s.data.profile.ID
	s.mu.Unlock()

	if err := s.checkChallenge(challenge, ok, in.Purpose, in.Code); err != nil {
		log.Debug().Err(err).Msg("otp rejected")
		writeMessage(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	pair, err := s.issueTokens(userID)
	if err != nil {
		log.Err(err).Msg("[mockapi.verifyOTP] issue tokens")
		writeMessage(w, http.StatusInternalServerError, "unable to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) checkChallenge(c otpChallenge, found bool, purpose api.OTPPurpose, code string) error {
	if !found || c.Purpose != purpose {
		return clinicerrors.ErrInvalidOTP
	}
	if s.now().After(c.ExpiresAt) {
		return clinicerrors.Wrapf(clinicerrors.ErrInvalidOTP, "challenge %s expired", c.ID)
	}
	if err := bcrypt.CompareHashAndPassword(c.CodeHash, []byte(code)); err != nil {
		return clinicerrors.Wrapf(clinicerrors.ErrInvalidOTP, "challenge %s: %v", c.ID, err)
	}
	return nil
}

// refreshTokens rotates a refresh token taken from the body or, failing
// that, from the refresh_token cookie.
func (s *Server) refreshTokens(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = decodeBody(r, &in)
	token := in.RefreshToken
	if token == "" {
		if c, err := r.Cookie(refreshCookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	userID, err := s.refresh.Consume(token)
	if err != nil {
		log.Debug().Err(err).Msg("refresh rejected")
		writeMessage(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	pair, err := s.issueTokens(userID)
	if err != nil {
		log.Err(err).Msg("[mockapi.refreshTokens] issue tokens")
		writeMessage(w, http.StatusInternalServerError, "unable to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) bootstrap(w http.ResponseWriter, r *http.Request) {
	userID, err := s.verifyAccessToken(bearerToken(r.Header.Get("Authorization")))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "not authenticated"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if userID != s.data.profile.ID {
		writeError(w, http.StatusNotFound, clinicerrors.Wrapf(clinicerrors.ErrNotFound, "user"))
		return
	}
	writeJSON(w, http.StatusOK, api.Bootstrap{Profile: s.data.profile, Clinic: s.data.clinic})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.verifyAccessToken(bearerToken(r.Header.Get("Authorization"))); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "not authenticated"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
