// Package gmail provides a bearer-token-authenticated client for the
// Gmail drafts endpoint.
package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Client performs draft creation against the mail API.
type Client interface {
	// CreateDraft submits a base64url-encoded raw MIME message.
	// Non-2xx responses are returned as *APIError.
	CreateDraft(ctx context.Context, accessToken, rawMessage string) error
}

// APIError is a non-2xx response from the mail API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gmail: create draft status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithTimeout sets the per-call timeout. Mail APIs are slower than lead
// sites under load, so this defaults well above the website-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.http.Timeout = d }
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a mail API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) CreateDraft(ctx context.Context, accessToken, rawMessage string) error {
	payload := map[string]any{
		"message": map[string]any{
			"raw": rawMessage,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "gmail: marshal draft")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/me/drafts", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "gmail: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "gmail: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(respBody)),
	}
}
