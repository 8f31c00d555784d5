package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/token"
)

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Manager exchanges a refresh token for a new token set at the backend's
// refresh endpoint. It does not touch the session; the caller decides what
// to persist.
type Manager struct {
	client   Doer
	endpoint string
}

// NewManager creates a refresh manager posting to endpoint, the absolute
// URL of /v1/auth/refresh.
func NewManager(client Doer, endpoint string) *Manager {
	return &Manager{
		client:   client,
		endpoint: endpoint,
	}
}

func (m *Manager) Endpoint() string {
	return m.endpoint
}

// Refresh performs the exchange. Every failure wraps ErrRefreshFailed; a
// backend rejection additionally wraps the *HTTPError.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: %w", clienterrors.ErrRefreshFailed, clienterrors.ErrNoSession)
	}

	body, err := json.Marshal(oauthmodel.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", clienterrors.ErrRefreshFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", clienterrors.ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %w", clienterrors.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", clienterrors.ErrRefreshFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %w", clienterrors.ErrRefreshFailed, &clienterrors.HTTPError{Status: resp.StatusCode, Body: string(respBody)})
	}

	var tokens oauthmodel.TokenResponse
	if err := json.Unmarshal(respBody, &tokens); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %w", clienterrors.ErrRefreshFailed, err)
	}
	if tokens.Access() == "" {
		return nil, fmt.Errorf("%w: %w", clienterrors.ErrRefreshFailed, oauthmodel.ErrMissingAccessToken)
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}

	return &tokens, nil
}

// NeedsRefresh reports whether accessToken is a JWT that expires within skew.
// Opaque tokens cannot be judged and report false.
func NeedsRefresh(accessToken string, skew time.Duration) bool {
	claims, err := token.ParseClaims(accessToken)
	if err != nil {
		return false
	}
	return claims.ExpiresWithin(skew)
}
