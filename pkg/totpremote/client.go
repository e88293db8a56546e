package totpremote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client calls a remote verify endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default client (5s timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient targets baseURL + "/2fa/verify".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/2fa/verify",
		http:     &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify asks the endpoint whether token is valid for secret within window steps.
func (c *Client) Verify(ctx context.Context, req Request) (bool, error) {
	if c == nil || c.endpoint == "/2fa/verify" {
		return false, ErrNoEndpoint
	}

	body, err := json.Marshal(req)
	if err != nil {
		return false, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Valid, nil
}
