package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	clinicerrors "github.com/beautyclinic/clinic-web/internal/errors"
	"github.com/beautyclinic/clinic-web/session"
)

// Client is a session.Vault that calls the companion endpoints over HTTP.
// The HTTP client must carry a cookie jar for the origin so the HTTP-only
// cookie travels with later requests.
type Client struct {
	origin     string
	httpClient *http.Client
}

var _ session.Vault = (*Client)(nil)

func NewClient(origin string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		origin:     strings.TrimSuffix(origin, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Exists(ctx context.Context) (bool, error) {
	var out struct {
		HasRefreshToken bool `json:"hasRefreshToken"`
	}
	if err := c.send(ctx, http.MethodGet, nil, &out); err != nil {
		return false, fmt.Errorf("[companion.Exists] %w", err)
	}
	return out.HasRefreshToken, nil
}

func (c *Client) Save(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("[companion.Save] %w", clinicerrors.ErrNoRefreshToken)
	}
	payload := map[string]string{"refreshToken": refreshToken}
	if err := c.send(ctx, http.MethodPost, payload, nil); err != nil {
		return fmt.Errorf("[companion.Save] %w", err)
	}
	return nil
}

func (c *Client) Clear(ctx context.Context) error {
	if err := c.send(ctx, http.MethodDelete, nil, nil); err != nil {
		return fmt.Errorf("[companion.Clear] %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.origin+Route, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
