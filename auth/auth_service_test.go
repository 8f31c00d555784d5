package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/curnce/curnce-client/auth"
	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/internal/mockapi"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/users"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		result, err := f.ctx.Login(ctx, "  "+testEmail+" ", testPassword)
		require.NoError(t, err)
		require.False(t, result.TwoFactorPending)
		require.Equal(t, testEmail, result.User.Email)
		require.Equal(t, auth.StateAuthenticated, f.ctx.State())
		require.Equal(t, testTenantID, f.sessions.TenantID())
		require.NotEmpty(t, f.sessions.RefreshToken())
	})

	t.Run("wrong password is an ordinary error", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.ctx.Login(ctx, testEmail, "Wrong-passw0rd")

		var httpErr *clienterrors.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusUnauthorized, httpErr.Status)
		require.Equal(t, "invalid email or password", httpErr.Message())
		require.NotErrorIs(t, err, clienterrors.ErrSessionExpired)
		require.Zero(t, f.api.Calls("POST /v1/auth/refresh"))
		require.Zero(t, f.redirects.Load())
		require.Equal(t, auth.StateChecking, f.ctx.State())
	})

	t.Run("malformed email never reaches the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.ctx.Login(ctx, "ada@", testPassword)
		require.ErrorIs(t, err, clienterrors.ErrValidation)
		require.Zero(t, f.api.Calls("POST /v1/auth/login"))
	})

	t.Run("empty password", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.ctx.Login(ctx, testEmail, "")
		require.ErrorIs(t, err, clienterrors.ErrValidation)
		require.ErrorIs(t, err, auth.PasswordRequiredErr)
	})
}

func TestLogin_TwoFactor(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	result, err := f.ctx.Login(ctx, testTwoFactor, testPassword)
	require.NoError(t, err)
	require.True(t, result.TwoFactorPending)
	require.Nil(t, result.User)
	require.NotEmpty(t, f.sessions.PreAuthToken())
	require.False(t, f.sessions.Snapshot().Authenticated())

	t.Run("malformed code", func(t *testing.T) {
		_, err := f.ctx.VerifyTwoFactor(ctx, "12ab56")
		require.ErrorIs(t, err, clienterrors.ErrValidation)
		require.ErrorIs(t, err, oauthmodel.ErrInvalidCode)
		require.Zero(t, f.api.Calls("POST /v1/auth/2fa/verify"))
	})

	t.Run("wrong code", func(t *testing.T) {
		_, err := f.ctx.VerifyTwoFactor(ctx, "654321")
		require.Equal(t, http.StatusUnauthorized, clienterrors.StatusCode(err))
		require.NotEmpty(t, f.sessions.PreAuthToken(), "the pending login survives a typo")
	})

	t.Run("valid code", func(t *testing.T) {
		user, err := f.ctx.VerifyTwoFactor(ctx, " "+mockapi.DefaultTwoFactorCode+" ")
		require.NoError(t, err)
		require.Equal(t, testTwoFactor, user.Email)
		require.Equal(t, users.RoleAdmin, f.ctx.Role())
		require.Empty(t, f.sessions.PreAuthToken())
		require.True(t, f.sessions.Snapshot().Authenticated())
	})

	t.Run("no pending login", func(t *testing.T) {
		_, err := f.ctx.VerifyTwoFactor(ctx, mockapi.DefaultTwoFactorCode)
		require.ErrorIs(t, err, oauthmodel.ErrMissingPreAuth)
	})
}

func TestTwoFactorEnrolment(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	_, err := f.ctx.SetupTwoFactor(ctx)
	require.ErrorIs(t, err, auth.NotAuthenticatedErr)

	f.login(t)
	setup, err := f.ctx.SetupTwoFactor(ctx)
	require.NoError(t, err)
	require.Len(t, setup.Secret, 16)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")

	require.ErrorIs(t, f.ctx.EnableTwoFactor(ctx, "1234"), clienterrors.ErrValidation)
	require.NoError(t, f.ctx.EnableTwoFactor(ctx, mockapi.DefaultTwoFactorCode))

	// the next login now asks for the second factor
	require.NoError(t, f.ctx.Logout(ctx))
	result, err := f.ctx.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.True(t, result.TwoFactorPending)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("signs the new user in", func(t *testing.T) {
		f := setupTestFixture(t)
		user, err := f.ctx.Register(ctx, oauthmodel.RegisterRequest{
			Email:       "linus@example.com",
			Password:    "Str0ngPassword",
			Name:        "Linus",
			CompanyName: "Acme Ltd",
		})
		require.NoError(t, err)
		require.Equal(t, "linus@example.com", user.Email)
		require.Equal(t, users.RoleOwner, user.Role)
		require.Equal(t, auth.StateAuthenticated, f.ctx.State())
	})

	t.Run("weak password", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.ctx.Register(ctx, oauthmodel.RegisterRequest{Email: "linus@example.com", Password: "short"})
		require.ErrorIs(t, err, clienterrors.ErrValidation)
		require.Zero(t, f.api.Calls("POST /v1/auth/register"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.ctx.Register(ctx, oauthmodel.RegisterRequest{Email: testEmail, Password: "Str0ngPassword"})
		require.Equal(t, http.StatusConflict, clienterrors.StatusCode(err))
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	require.ErrorIs(t, f.ctx.ChangePassword(ctx, testPassword, "N3wPassword"), auth.NotAuthenticatedErr)

	f.login(t)

	err := f.ctx.ChangePassword(ctx, testPassword, testPassword)
	require.ErrorIs(t, err, auth.PasswordUnchangedErr)

	err = f.ctx.ChangePassword(ctx, testPassword, "weak")
	require.ErrorIs(t, err, clienterrors.ErrValidation)

	err = f.ctx.ChangePassword(ctx, "Not-the-passw0rd", "N3wPassword")
	require.Equal(t, http.StatusForbidden, clienterrors.StatusCode(err))

	require.NoError(t, f.ctx.ChangePassword(ctx, testPassword, "N3wPassword"))

	valid, err := f.ctx.VerifyPassword(ctx, "N3wPassword")
	require.NoError(t, err)
	require.True(t, valid)

	valid, err = f.ctx.VerifyPassword(ctx, testPassword)
	require.NoError(t, err)
	require.False(t, valid)

	_, err = f.ctx.VerifyPassword(ctx, "")
	require.ErrorIs(t, err, auth.PasswordRequiredErr)
}

func TestValidator_ValidateTwoFactorCode(t *testing.T) {
	v := auth.NewValidator()

	t.Run("six digits", func(t *testing.T) {
		code, err := v.ValidateTwoFactorCode(" 012345\n")
		require.NoError(t, err)
		require.Equal(t, "012345", code)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := v.ValidateTwoFactorCode("12345")
		require.ErrorIs(t, err, oauthmodel.ErrInvalidCode)
	})

	t.Run("letters", func(t *testing.T) {
		_, err := v.ValidateTwoFactorCode("12345a")
		require.ErrorIs(t, err, clienterrors.ErrValidation)
	})
}
