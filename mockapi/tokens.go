package mockapi

import (
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
)

const issuer = "clinic-mock"

// mintAccessToken signs a short lived HS256 access token for userID.
func (s *Server) mintAccessToken(userID string) (string, error) {
	now := s.now()
	claims := jwtlib.MapClaims{
		"iss": issuer,
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.accessTokenExpiry).Unix(),
		"jti": uuid.NewString(),
		"gen": s.tokenGeneration(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// verifyAccessToken returns the subject of a valid access token.
func (s *Server) verifyAccessToken(raw string) (string, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", clinicerrors.Wrapf(clinicerrors.ErrInvalidToken, "parse access token: %v", err)
	}
	if gen, _ := claims["gen"].(float64); int64(gen) != s.tokenGeneration() {
		return "", clinicerrors.Wrapf(clinicerrors.ErrInvalidToken, "access token revoked")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", clinicerrors.Wrapf(clinicerrors.ErrInvalidToken, "access token has no subject")
	}
	return sub, nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
