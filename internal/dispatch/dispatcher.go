package dispatch

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/gmail"
	"github.com/sells-group/outreach-cli/pkg/googleauth"
)

// Dispatcher creates mail drafts through the Gmail API, handling token
// refresh on auth expiry and bounded retries on server faults.
type Dispatcher struct {
	client     gmail.Client
	tokens     googleauth.TokenSource
	from       string
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a Dispatcher. tokens may be nil, in which case expired
// credentials fail instead of refreshing.
func New(client gmail.Client, tokens googleauth.TokenSource, from string, maxRetries int) *Dispatcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Dispatcher{client: client, tokens: tokens, from: from, maxRetries: maxRetries, sleep: sleepCtx}
}

// CreateDraft builds the MIME message and submits it as a draft for the
// given recipient. It returns the access token in effect after the call,
// which differs from the input when a mid-call refresh occurred.
func (d *Dispatcher) CreateDraft(ctx context.Context, token, to string, draft *model.EmailDraft) (string, error) {
	if !model.ValidEmail(to) {
		return token, eris.Errorf("dispatch: invalid email format: %s", to)
	}

	raw, err := gmail.BuildRawMessage(d.from, to, draft.Subject, draft.HTMLBody, draft.TextBody)
	if err != nil {
		return token, eris.Wrap(err, "dispatch: build message")
	}

	log := zap.L().With(zap.String("to", to))

	for attempt := 0; ; attempt++ {
		err := d.client.CreateDraft(ctx, token, raw)
		if err == nil {
			return token, nil
		}
		if ctx.Err() != nil {
			return token, eris.Wrap(ctx.Err(), "dispatch: cancelled")
		}

		var apiErr *gmail.APIError
		switch {
		case errors.As(err, &apiErr) && isAuthExpiry(apiErr):
			if d.tokens == nil || attempt >= d.maxRetries {
				return token, eris.New("dispatch: TokenExpiredError: mail API token may have expired")
			}
			log.Warn("dispatch: auth rejected, refreshing token", zap.Int("attempt", attempt+1))
			fresh, refreshErr := d.tokens.Token(ctx)
			if refreshErr != nil {
				return token, eris.Wrap(refreshErr, "dispatch: refresh token")
			}
			token = fresh

		case errors.As(err, &apiErr) && apiErr.StatusCode >= 500:
			if attempt >= d.maxRetries {
				return token, eris.Wrapf(err, "dispatch: server error creating draft for %s", to)
			}
			delay := time.Duration(3*(attempt+1)) * time.Second
			log.Warn("dispatch: server error, backing off",
				zap.Int("status", apiErr.StatusCode), zap.Duration("delay", delay))
			if err := d.sleep(ctx, delay); err != nil {
				return token, eris.Wrap(err, "dispatch: cancelled")
			}

		case errors.As(err, &apiErr):
			// Other client errors are not retryable.
			return token, eris.Wrapf(err, "dispatch: create draft for %s rejected", to)

		case isTimeout(err):
			if attempt >= d.maxRetries {
				return token, eris.Wrapf(err, "dispatch: timeout creating draft for %s", to)
			}
			if d.tokens != nil {
				log.Warn("dispatch: timeout, refreshing token before retry", zap.Int("attempt", attempt+1))
				fresh, refreshErr := d.tokens.Token(ctx)
				if refreshErr != nil {
					return token, eris.Wrap(refreshErr, "dispatch: refresh token")
				}
				token = fresh
			} else {
				log.Warn("dispatch: timeout, retrying", zap.Int("attempt", attempt+1))
			}

		default:
			if attempt >= d.maxRetries {
				return token, eris.Wrapf(err, "dispatch: create draft for %s", to)
			}
			log.Warn("dispatch: transport error, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
		}
	}
}

// isAuthExpiry reports whether the API response indicates expired or
// invalid credentials.
func isAuthExpiry(apiErr *gmail.APIError) bool {
	if apiErr.StatusCode == 401 {
		return true
	}
	body := strings.ToLower(apiErr.Body)
	return strings.Contains(body, "invalid credentials") || strings.Contains(body, "token expired")
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
