// Package googleauth mints Google API bearer tokens from a service
// account key via the signed-JWT grant, impersonating a workspace user.
package googleauth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	jwtBearerGrant  = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// TokenSource mints bearer tokens on demand. Implementations must be
// safe for concurrent use.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Option configures the service-account token source.
type Option func(*ServiceAccount)

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(u string) Option {
	return func(s *ServiceAccount) { s.tokenURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *ServiceAccount) { s.http = hc }
}

// WithExpiry overrides the assertion lifetime (default 1h).
func WithExpiry(d time.Duration) Option {
	return func(s *ServiceAccount) { s.expiry = d }
}

// ServiceAccount is a TokenSource backed by a service-account RSA key.
// Each Token call signs a fresh assertion and exchanges it; callers own
// caching and refresh cadence.
type ServiceAccount struct {
	clientEmail string
	subject     string
	scopes      []string
	key         *rsa.PrivateKey
	tokenURL    string
	expiry      time.Duration
	http        *http.Client
}

// NewServiceAccount parses the PEM private key and builds a token source
// that impersonates subject with the given scopes.
func NewServiceAccount(clientEmail, subject string, scopes []string, privateKeyPEM []byte, opts ...Option) (*ServiceAccount, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, eris.Wrap(err, "googleauth: parse private key")
	}

	s := &ServiceAccount{
		clientEmail: clientEmail,
		subject:     subject,
		scopes:      scopes,
		key:         key,
		tokenURL:    defaultTokenURL,
		expiry:      time.Hour,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Token signs an RS256 assertion (iss = service account, sub =
// impersonated user, aud = token endpoint) and exchanges it for a bearer
// token. Transient endpoint failures are retried.
func (s *ServiceAccount) Token(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   s.clientEmail,
		"sub":   s.subject,
		"scope": strings.Join(s.scopes, " "),
		"aud":   s.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(s.expiry).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		return "", eris.Wrap(err, "googleauth: sign assertion")
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("googleauth", "token_exchange")

	token, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		return s.exchange(ctx, assertion)
	})
	if err != nil {
		return "", err
	}

	zap.L().Debug("googleauth: minted access token", zap.String("subject", s.subject))
	return token, nil
}

func (s *ServiceAccount) exchange(ctx context.Context, assertion string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "googleauth: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "googleauth: token exchange")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", eris.Wrap(err, "googleauth: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("googleauth: token exchange status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", eris.Wrap(err, "googleauth: unmarshal token response")
	}
	if parsed.AccessToken == "" {
		return "", eris.New("googleauth: empty access token in response")
	}

	return parsed.AccessToken, nil
}
