// Package fetch retrieves raw website content for lead personalization.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Browser-like header set. Lead sites frequently block obvious bots, and
// many of them run on misconfigured TLS, hence the permissive transport.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Connection":      "keep-alive",
}

// Fetcher issues bounded-timeout GETs against lead websites with a small
// fixed retry budget for retryable statuses.
type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	maxBody    int64
}

// New creates a Fetcher from config.
func New(cfg config.FetchConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	delay := time.Duration(cfg.RetryDelaySecs) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 512 * 1024
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(int(cfg.RatePerSec), 1))
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
				MaxIdleConnsPerHost: 2,
			},
		},
		limiter:    limiter,
		maxRetries: cfg.MaxRetries,
		retryDelay: delay,
		maxBody:    maxBody,
	}
}

// Fetch retrieves the page at rawURL, normalizing the scheme first.
// Permanent statuses (404, most 4xx) fail immediately; 5xx, 408, 429,
// empty bodies, and timeouts are retried up to the configured budget with
// a fixed delay. The transient/permanent decision for the run is the
// caller's, via the error message.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	target := model.NormalizeURL(rawURL)
	log := zap.L().With(zap.String("url", target))

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return "", eris.Wrap(err, "fetch: rate limit wait")
			}
		}

		content, retryable, err := f.once(ctx, target)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if !retryable || ctx.Err() != nil {
			return "", lastErr
		}
		if attempt >= f.maxRetries {
			break
		}

		log.Warn("fetch: retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		timer := time.NewTimer(f.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", lastErr
		case <-timer.C:
		}
	}

	return "", lastErr
}

// once performs a single GET. The bool reports whether the failure is
// worth retrying within this call.
func (f *Fetcher) once(ctx context.Context, target string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false, eris.Wrapf(err, "fetch: invalid request for %s", target)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
			return "", true, eris.Errorf("fetch: timeout fetching %s", target)
		}
		// DNS failures, connection refusals, TLS errors. Not retried
		// here; the classifier one layer up decides their fate.
		return "", false, eris.Wrapf(err, "fetch: request failed for %s", target)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
		if readErr != nil {
			return "", true, eris.Wrapf(readErr, "fetch: read body for %s", target)
		}
		if strings.TrimSpace(string(body)) == "" {
			return "", true, eris.Errorf("fetch: received empty content from %s", target)
		}
		return string(body), false, nil

	case resp.StatusCode == http.StatusNotFound:
		return "", false, eris.Errorf("fetch: Page not found (404): %s", target)

	case resp.StatusCode == http.StatusRequestTimeout:
		return "", true, eris.Errorf("fetch: request timeout (HTTP 408) from %s", target)

	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, eris.Errorf("fetch: too many requests (HTTP 429) from %s", target)

	case resp.StatusCode >= 500:
		return "", true, eris.Errorf("fetch: server error (HTTP %d) from %s", resp.StatusCode, target)

	default:
		// Remaining 4xx client errors are permanent for this site.
		return "", false, eris.Errorf("fetch: HTTP %d client error from %s", resp.StatusCode, target)
	}
}
