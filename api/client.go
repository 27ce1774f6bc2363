// Package api is the REST client for the clinic backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const defaultTimeout = 10 * time.Second

// Config wires the backend location and credentials for a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Tokens supplies the bearer token for CRUD requests. Requests go out
	// without Authorization while it has no token.
	Tokens  oauth2.TokenSource
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

func NewClient(cfg Config) (*Client, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     cfg.Tokens,
	}, nil
}

// WithTokens returns a copy of the client that authorises CRUD requests
// from src.
func (c *Client) WithTokens(src oauth2.TokenSource) *Client {
	clone := *c
	clone.tokens = src
	return &clone
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("[api.NewClient] base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("[api.NewClient] invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("[api.NewClient] base URL %q needs a scheme and host", raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	injectTraceparent(ctx, req)
	return req, nil
}

func injectTraceparent(ctx context.Context, req *http.Request) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return
	}
	req.Header.Set("Traceparent", fmt.Sprintf("00-%s-%s-01", sc.TraceID().String(), sc.SpanID().String()))
}

// authorise sets the bearer header from the token source when one is
// available.
func (c *Client) authorise(req *http.Request) {
	if c.tokens == nil {
		return
	}
	tok, err := c.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return
	}
	tok.SetAuthHeader(req)
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TransportError{Op: op, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return TransportError{Op: op, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) call(ctx context.Context, op, method, path string, payload, out any) error {
	req, err := c.newJSONRequest(ctx, method, path, payload)
	if err != nil {
		return TransportError{Op: op, Cause: err}
	}
	c.authorise(req)
	return c.do(op, req, out)
}
