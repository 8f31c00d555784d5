package session

import (
	"context"
	"fmt"
	"sync"

	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/token"
	"golang.org/x/oauth2"
)

// Manager owns the session of one client. It is the only writer of the
// store; everything else reads credentials through it.
type Manager struct {
	store Store

	mu      sync.RWMutex
	current Session

	listenersMu sync.Mutex
	onClear     []func()
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Load reads the persisted session into memory. It is called once at start
// up and again when a rotation loses a race against another process.
func (m *Manager) Load(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	values, err := loadAll(ctx, m.store)
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	m.current = fromValues(values)
	return m.current, nil
}

// Snapshot returns a copy of the in-memory session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) AccessToken() string {
	return m.Snapshot().AccessToken
}

func (m *Manager) RefreshToken() string {
	return m.Snapshot().RefreshToken
}

func (m *Manager) TenantID() string {
	return m.Snapshot().TenantID
}

func (m *Manager) PreAuthToken() string {
	return m.Snapshot().PreAuthToken
}

// Adopt stores a freshly issued token set, replacing whatever was held and
// ending any pending two-factor login.
func (m *Manager) Adopt(ctx context.Context, tokens *oauthmodel.TokenResponse) error {
	if tokens.Access() == "" {
		return oauthmodel.ErrMissingAccessToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := Session{
		AccessToken:  tokens.Access(),
		RefreshToken: tokens.RefreshToken,
		TenantID:     tokens.Tenant(),
	}
	if next.TenantID == "" {
		if claims, err := token.ParseClaims(next.AccessToken); err == nil {
			next.TenantID = claims.TenantID
		}
	}

	if err := m.store.SetMany(ctx, valuesOf(next)); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if err := m.store.Delete(ctx, emptyKeys(next)...); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	m.current = next
	return nil
}

// Rotate replaces the access token prevAccess with the refreshed token set.
// The write only happens if prevAccess is still the stored token; otherwise
// ErrTokenRotated is returned and the in-memory session is reloaded so the
// caller can use the winner's token.
func (m *Manager) Rotate(ctx context.Context, prevAccess string, tokens *oauthmodel.TokenResponse) error {
	if tokens.Access() == "" {
		return oauthmodel.ErrMissingAccessToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current
	next.AccessToken = tokens.Access()
	if tokens.RefreshToken != "" {
		next.RefreshToken = tokens.RefreshToken
	}
	if tenant := tokens.Tenant(); tenant != "" {
		next.TenantID = tenant
	}

	values := map[string]string{
		KeyToken:        next.AccessToken,
		KeyRefreshToken: next.RefreshToken,
	}
	if next.TenantID != "" {
		values[KeyTenantID] = next.TenantID
	}

	swapped, err := m.store.CompareAndSwap(ctx, KeyToken, prevAccess, values)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if !swapped {
		stored, err := loadAll(ctx, m.store)
		if err != nil {
			return fmt.Errorf("reload session: %w", err)
		}
		m.current = fromValues(stored)
		return clienterrors.ErrTokenRotated
	}
	m.current = next
	return nil
}

// SetPreAuth records a pending two-factor login.
func (m *Manager) SetPreAuth(ctx context.Context, preAuthToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetMany(ctx, map[string]string{KeyPreAuthToken: preAuthToken}); err != nil {
		return fmt.Errorf("store pre-auth token: %w", err)
	}
	m.current.PreAuthToken = preAuthToken
	return nil
}

func (m *Manager) ClearPreAuth(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, KeyPreAuthToken); err != nil {
		return fmt.Errorf("clear pre-auth token: %w", err)
	}
	m.current.PreAuthToken = ""
	return nil
}

// Clear deletes every persisted key and notifies OnClear listeners. The
// in-memory session is dropped even if the store fails.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	err := m.store.Delete(ctx, Keys...)
	m.current = Session{}
	m.mu.Unlock()

	m.listenersMu.Lock()
	listeners := append([]func(){}, m.onClear...)
	m.listenersMu.Unlock()
	for _, fn := range listeners {
		fn()
	}

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// OnClear registers fn to run after every Clear.
func (m *Manager) OnClear(fn func()) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.onClear = append(m.onClear, fn)
}

// Token returns the current credentials as an oauth2 token, or nil when no
// access token is held. Expiry comes from the JWT exp claim when present.
func (m *Manager) Token() *oauth2.Token {
	s := m.Snapshot()
	if s.AccessToken == "" {
		return nil
	}
	t := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
	}
	if claims, err := token.ParseClaims(s.AccessToken); err == nil {
		t.Expiry = claims.ExpiresAt
	}
	return t
}

// TokenSource exposes the session to code built on golang.org/x/oauth2.
// It never refreshes; refresh is driven by the gateway on 401.
func (m *Manager) TokenSource() oauth2.TokenSource {
	return tokenSource{m: m}
}

type tokenSource struct {
	m *Manager
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	t := ts.m.Token()
	if t == nil {
		return nil, clienterrors.ErrNoSession
	}
	return t, nil
}

func valuesOf(s Session) map[string]string {
	values := make(map[string]string, len(Keys))
	if s.AccessToken != "" {
		values[KeyToken] = s.AccessToken
	}
	if s.RefreshToken != "" {
		values[KeyRefreshToken] = s.RefreshToken
	}
	if s.TenantID != "" {
		values[KeyTenantID] = s.TenantID
	}
	if s.PreAuthToken != "" {
		values[KeyPreAuthToken] = s.PreAuthToken
	}
	return values
}

func emptyKeys(s Session) []string {
	values := valuesOf(s)
	keys := make([]string, 0, len(Keys))
	for _, k := range Keys {
		if _, ok := values[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}
