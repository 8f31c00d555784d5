package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/curnce/curnce-client/gateway"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/users"
)

// LoginResult is the outcome of a password login. When TwoFactorPending is
// set the session holds a pre-auth token and VerifyTwoFactor completes the
// login.
type LoginResult struct {
	User             *users.User
	TwoFactorPending bool
}

// Login signs in with email and password. The request is anonymous so a
// rejected password surfaces as an ordinary *errors.HTTPError.
func (c *Context) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req := oauthmodel.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := c.validator.ValidateLogin(req); err != nil {
		return nil, err
	}
	if c.sessions.PreAuthToken() != "" {
		// a new password login abandons the pending one
		if err := c.sessions.ClearPreAuth(ctx); err != nil {
			return nil, err
		}
	}

	tokens, err := gatewayJSON[oauthmodel.TokenResponse](ctx, c.gw, gateway.RouteAuthLogin, gateway.Options{
		Method:    http.MethodPost,
		Body:      req,
		Anonymous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if tokens.RequiresTwoFactor {
		if tokens.PreAuthToken == "" {
			return nil, fmt.Errorf("login: %w", oauthmodel.ErrMissingPreAuth)
		}
		if err := c.sessions.SetPreAuth(ctx, tokens.PreAuthToken); err != nil {
			return nil, err
		}
		c.log.Info().Msg("Two-factor verification required")
		return &LoginResult{TwoFactorPending: true}, nil
	}

	if err := c.Adopt(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &LoginResult{User: c.User()}, nil
}

// VerifyTwoFactor completes a login that returned TwoFactorPending.
func (c *Context) VerifyTwoFactor(ctx context.Context, code string) (*users.User, error) {
	code, err := c.validator.ValidateTwoFactorCode(code)
	if err != nil {
		return nil, err
	}
	preAuth := c.sessions.PreAuthToken()
	if preAuth == "" {
		return nil, oauthmodel.ErrMissingPreAuth
	}

	tokens, err := gatewayJSON[oauthmodel.TokenResponse](ctx, c.gw, gateway.RouteAuth2FAVerify, gateway.Options{
		Method:    http.MethodPost,
		Body:      oauthmodel.TwoFactorVerifyRequest{PreAuthToken: preAuth, Code: code},
		Anonymous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify two-factor code: %w", err)
	}
	if err := c.Adopt(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("verify two-factor code: %w", err)
	}
	return c.User(), nil
}

// SetupTwoFactor starts enrolment and returns the shared secret to show the
// user.
func (c *Context) SetupTwoFactor(ctx context.Context) (*oauthmodel.TwoFactorSetupResponse, error) {
	if err := c.requireAuthenticated(); err != nil {
		return nil, err
	}
	setup, err := gatewayJSON[oauthmodel.TwoFactorSetupResponse](ctx, c.gw, gateway.RouteAuth2FASetup, gateway.Options{Method: http.MethodPost})
	if err != nil {
		return nil, fmt.Errorf("set up two-factor: %w", err)
	}
	return &setup, nil
}

// EnableTwoFactor confirms enrolment with a code from the authenticator app.
func (c *Context) EnableTwoFactor(ctx context.Context, code string) error {
	if err := c.requireAuthenticated(); err != nil {
		return err
	}
	code, err := c.validator.ValidateTwoFactorCode(code)
	if err != nil {
		return err
	}
	_, err = c.gw.Do(ctx, gateway.RouteAuth2FAEnable, gateway.Options{
		Method: http.MethodPost,
		Body:   oauthmodel.TwoFactorEnableRequest{Code: code},
	})
	if err != nil {
		return fmt.Errorf("enable two-factor: %w", err)
	}
	return nil
}

// Register creates an account. When the backend answers with tokens the new
// user is signed in straight away.
func (c *Context) Register(ctx context.Context, req oauthmodel.RegisterRequest) (*users.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := c.validator.ValidateRegistration(req); err != nil {
		return nil, err
	}

	tokens, err := gatewayJSON[oauthmodel.TokenResponse](ctx, c.gw, gateway.RouteAuthRegister, gateway.Options{
		Method:    http.MethodPost,
		Body:      req,
		Anonymous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if tokens.Access() == "" {
		return tokens.User, nil
	}
	if err := c.Adopt(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return c.User(), nil
}

func (c *Context) ChangePassword(ctx context.Context, current, next string) error {
	if err := c.requireAuthenticated(); err != nil {
		return err
	}
	req := oauthmodel.PasswordChangeRequest{CurrentPassword: current, NewPassword: next}
	if err := c.validator.ValidatePasswordChange(req); err != nil {
		return err
	}
	if _, err := c.gw.Do(ctx, gateway.RouteAuthPasswordChange, gateway.Options{Method: http.MethodPost, Body: req}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// VerifyPassword re-confirms the signed in user's password before a
// sensitive action.
func (c *Context) VerifyPassword(ctx context.Context, password string) (bool, error) {
	if err := c.requireAuthenticated(); err != nil {
		return false, err
	}
	if password == "" {
		return false, invalid(PasswordRequiredErr)
	}
	resp, err := c.gw.Do(ctx, gateway.RouteAuthPasswordVerify, gateway.Options{
		Method: http.MethodPost,
		Body:   oauthmodel.PasswordVerifyRequest{Password: password},
	})
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return resp.Get("valid").Bool(), nil
}

func (c *Context) requireAuthenticated() error {
	if !c.sessions.Snapshot().Authenticated() {
		return NotAuthenticatedErr
	}
	return nil
}

func gatewayJSON[T any](ctx context.Context, gw Gateway, path string, opts gateway.Options) (T, error) {
	var out T
	resp, err := gw.Do(ctx, path, opts)
	if err != nil {
		return out, err
	}
	err = resp.Decode(&out)
	return out, err
}
