package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/curnce/curnce-client/gateway"
	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/session"
	"github.com/curnce/curnce-client/token"
	"github.com/curnce/curnce-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State of the auth context.
//
//	checking ------> authenticated
//	    \               |    ^
//	     \              v    |
//	      `-------> anonymous
//
// checking is only ever the initial state.
type State string

const (
	StateChecking      State = "checking"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

var transitions = map[State][]State{
	StateChecking:      {StateAuthenticated, StateAnonymous},
	StateAuthenticated: {StateAuthenticated, StateAnonymous},
	StateAnonymous:     {StateAuthenticated, StateAnonymous},
}

func (s State) canMoveTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Gateway sends backend requests. *gateway.Client satisfies it.
type Gateway interface {
	Do(ctx context.Context, path string, opts gateway.Options) (*gateway.Response, error)
}

// Context tracks who is signed in. The user and role come from a single
// identity check at start up and from the tokens adopted after a login.
type Context struct {
	gw        Gateway
	sessions  *session.Manager
	navigator gateway.Navigator
	validator *Validator
	log       zerolog.Logger

	mu    sync.RWMutex
	state State
	user  *users.User
}

type ContextOption func(*Context)

func WithNavigator(n gateway.Navigator) ContextOption {
	return func(c *Context) {
		c.navigator = n
	}
}

func WithLogger(l zerolog.Logger) ContextOption {
	return func(c *Context) {
		c.log = l
	}
}

// NewContext creates a context in the checking state. Any clear of the
// session, including one caused by a failed refresh, moves it to anonymous.
func NewContext(gw Gateway, sessions *session.Manager, opts ...ContextOption) *Context {
	c := &Context{
		gw:        gw,
		sessions:  sessions,
		navigator: gateway.NavigatorFunc(func(context.Context, error) {}),
		validator: NewValidator(),
		log:       log.Logger,
		state:     StateChecking,
	}
	for _, opt := range opts {
		opt(c)
	}
	sessions.OnClear(func() {
		c.moveTo(StateAnonymous, nil)
	})
	return c
}

func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Loading is true until the first identity check has resolved.
func (c *Context) Loading() bool {
	return c.State() == StateChecking
}

// User returns a copy of the signed in user, or nil.
func (c *Context) User() *users.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Role returns the current user's role, or "" when anonymous.
func (c *Context) Role() users.RoleType {
	if u := c.User(); u != nil {
		return u.Role
	}
	return ""
}

func (c *Context) moveTo(next State, user *users.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.canMoveTo(next) {
		c.log.Warn().Str("from", string(c.state)).Str("to", string(next)).Msg("Ignoring invalid auth state transition")
		return
	}
	c.state = next
	c.user = user
	if next == StateAnonymous {
		c.user = nil
	}
}

// Check resolves the current identity with GET /auth/me. Without a stored
// access token it resolves to anonymous without a request. When the backend
// omits the user, identity falls back to the access token claims.
func (c *Context) Check(ctx context.Context) (*users.User, error) {
	if !c.sessions.Snapshot().Authenticated() {
		c.moveTo(StateAnonymous, nil)
		return nil, nil
	}

	resp, err := c.gw.Do(ctx, gateway.RouteAuthMe, gateway.Options{})
	if err != nil {
		c.moveTo(StateAnonymous, nil)
		return nil, fmt.Errorf("identity check: %w", err)
	}

	user, err := c.identityFrom(resp)
	if err != nil {
		c.moveTo(StateAnonymous, nil)
		return nil, err
	}
	c.moveTo(StateAuthenticated, user)
	return c.User(), nil
}

func (c *Context) identityFrom(resp *gateway.Response) (*users.User, error) {
	raw := resp.JSON
	if field := resp.Get("user"); field.Exists() && field.IsObject() {
		raw = json.RawMessage(field.Raw)
	}

	var user users.User
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &user); err != nil {
			c.log.Debug().Err(err).Msg("Identity response is not a user object")
		}
	}
	if user.ID != "" || user.Email != "" {
		return &user, nil
	}

	claims, err := token.ParseClaims(c.sessions.AccessToken())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", UnknownIdentityErr, err)
	}
	return claims.User(), nil
}

// Adopt stores a freshly issued token set and marks the context
// authenticated. The user comes from the response or the token claims.
func (c *Context) Adopt(ctx context.Context, tokens *oauthmodel.TokenResponse) error {
	if err := c.sessions.Adopt(ctx, tokens); err != nil {
		return err
	}

	user := tokens.User
	if user == nil {
		claims, err := token.ParseClaims(tokens.Access())
		if err != nil {
			c.log.Debug().Err(err).Msg("Adopted token carries no readable claims")
			user = &users.User{TenantID: tokens.Tenant()}
		} else {
			user = claims.User()
		}
	}
	c.moveTo(StateAuthenticated, user)
	return nil
}

// Logout clears the session and sends the user to the login entry point.
func (c *Context) Logout(ctx context.Context) error {
	err := c.sessions.Clear(ctx)
	c.navigator.RedirectToLogin(ctx, clienterrors.ErrNotAuthenticated)
	return err
}
