// Package sheets provides a whole-table read/replace client for the
// spreadsheet values API, the only write primitive the lead store needs.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/googleauth"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// Client reads and replaces whole value tables in one spreadsheet.
type Client interface {
	ReadAll(ctx context.Context, table string) ([][]string, error)
	WriteAll(ctx context.Context, table string, rows [][]string) error
	// Ping verifies the spreadsheet is reachable with current credentials.
	Ping(ctx context.Context) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL       string
	spreadsheetID string
	tokens        googleauth.TokenSource
	http          *http.Client
}

// NewClient creates a spreadsheet values client.
func NewClient(spreadsheetID string, tokens googleauth.TokenSource, opts ...Option) Client {
	c := &httpClient{
		baseURL:       defaultBaseURL,
		spreadsheetID: spreadsheetID,
		tokens:        tokens,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ReadAll(ctx context.Context, table string) ([][]string, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("sheets", "read_all")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([][]string, error) {
		body, err := c.do(ctx, http.MethodGet, c.valuesURL(table, ""), nil)
		if err != nil {
			return nil, err
		}

		var parsed struct {
			Values [][]string `json:"values"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, eris.Wrap(err, "sheets: unmarshal values")
		}
		return parsed.Values, nil
	})
}

func (c *httpClient) WriteAll(ctx context.Context, table string, rows [][]string) error {
	payload, err := json.Marshal(map[string]any{"values": rows})
	if err != nil {
		return eris.Wrap(err, "sheets: marshal values")
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("sheets", "write_all")

	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		_, err := c.do(ctx, http.MethodPut, c.valuesURL(table, "valueInputOption=RAW"), payload)
		return err
	})
}

func (c *httpClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s?fields=spreadsheetId", c.baseURL, c.spreadsheetID), nil)
	return err
}

// valuesURL builds the values endpoint for a table. The table name is a
// sheet range (e.g. "leads"), so it is path-escaped.
func (c *httpClient) valuesURL(table, query string) string {
	u := fmt.Sprintf("%s/%s/values/%s", c.baseURL, c.spreadsheetID, url.PathEscape(table))
	if query != "" {
		u += "?" + query
	}
	return u
}

func (c *httpClient) do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: mint token")
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("sheets: %s status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(body)))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return body, nil
}
