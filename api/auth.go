package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errMissingAccessToken = errors.New("response has no access token")

// RequestOTP asks the backend to send a one-time code to phone.
func (c *Client) RequestOTP(ctx context.Context, phone string, purpose OTPPurpose) (string, error) {
	payload := struct {
		Phone   string     `json:"phone"`
		Purpose OTPPurpose `json:"purpose"`
	}{Phone: phone, Purpose: purpose}

	var out struct {
		Message string `json:"message"`
	}
	if err := c.call(ctx, "request otp", http.MethodPost, RouteRequestOTP, payload, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// VerifyOTP exchanges a one-time code for a token pair.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string, purpose OTPPurpose) (TokenPair, error) {
	payload := struct {
		Phone   string     `json:"phone"`
		Code    string     `json:"code"`
		Purpose OTPPurpose `json:"purpose"`
	}{Phone: phone, Code: code, Purpose: purpose}

	var pair TokenPair
	if err := c.call(ctx, "verify otp", http.MethodPost, RouteVerifyOTP, payload, &pair); err != nil {
		return TokenPair{}, err
	}
	if strings.TrimSpace(pair.AccessToken) == "" {
		return TokenPair{}, TransportError{Op: "verify otp", Cause: errMissingAccessToken}
	}
	return pair, nil
}

// Refresh mints a new token pair. An empty refreshToken leaves the field
// out of the body so the backend falls back to its own cookie.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload := struct {
		RefreshToken string `json:"refresh_token,omitempty"`
	}{RefreshToken: refreshToken}

	req, err := c.newJSONRequest(ctx, http.MethodPost, RouteRefresh, payload)
	if err != nil {
		return TokenPair{}, TransportError{Op: "refresh", Cause: err}
	}
	var pair TokenPair
	if err := c.do("refresh", req, &pair); err != nil {
		return TokenPair{}, err
	}
	if strings.TrimSpace(pair.AccessToken) == "" {
		return TokenPair{}, TransportError{Op: "refresh", Cause: errMissingAccessToken}
	}
	return pair, nil
}

// Bootstrap fetches the profile and active clinic for accessToken.
func (c *Client) Bootstrap(ctx context.Context, accessToken string) (Bootstrap, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, RouteBootstrap, nil)
	if err != nil {
		return Bootstrap{}, TransportError{Op: "bootstrap", Cause: err}
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	var out Bootstrap
	if err := c.do("bootstrap", req, &out); err != nil {
		return Bootstrap{}, err
	}
	return out, nil
}
