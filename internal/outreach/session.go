// Package outreach runs the draft-creation pipeline over the contact
// list with bounded concurrency and periodic credential renewal.
package outreach

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/pkg/googleauth"
	"github.com/sells-group/outreach-cli/pkg/sheets"
)

// Session holds the shared mail credential and the sheet connection for
// one run. The token is read and replaced by concurrent workers, so
// access goes through the mutex.
type Session struct {
	tokens googleauth.TokenSource
	sheets sheets.Client

	mu    sync.Mutex
	token string
}

// NewSession mints an initial access token and verifies the sheet
// connection.
func NewSession(ctx context.Context, tokens googleauth.TokenSource, sheetClient sheets.Client) (*Session, error) {
	s := &Session{tokens: tokens, sheets: sheetClient}
	if err := s.Renew(ctx); err != nil {
		return nil, err
	}
	if err := s.Healthy(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Token returns the current access token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken stores a token refreshed elsewhere, typically by a dispatch
// retry.
func (s *Session) SetToken(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Renew mints a fresh access token.
func (s *Session) Renew(ctx context.Context) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return eris.Wrap(err, "outreach: renew token")
	}
	s.SetToken(token)
	zap.L().Debug("outreach: access token renewed")
	return nil
}

// Healthy verifies the sheet backend is reachable.
func (s *Session) Healthy(ctx context.Context) error {
	if err := s.sheets.Ping(ctx); err != nil {
		return eris.Wrap(err, "outreach: sheet connection unhealthy")
	}
	return nil
}
