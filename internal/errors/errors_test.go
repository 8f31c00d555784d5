package errors_test

import (
	"fmt"
	"strings"
	"testing"

	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestHTTPError_Error(t *testing.T) {
	err := &clienterrors.HTTPError{Status: 404, Body: "no such account"}
	require.Equal(t, "request failed: 404 no such account", err.Error())
}

func TestHTTPError_Message(t *testing.T) {
	t.Run("json message field", func(t *testing.T) {
		err := &clienterrors.HTTPError{Status: 400, Body: `{"message":"amount must be positive"}`}
		require.Equal(t, "amount must be positive", err.Message())
	})

	t.Run("nested error message", func(t *testing.T) {
		err := &clienterrors.HTTPError{Status: 422, Body: `{"error":{"message":"period closed"}}`}
		require.Equal(t, "period closed", err.Message())
	})

	t.Run("plain error field", func(t *testing.T) {
		err := &clienterrors.HTTPError{Status: 401, Body: `{"error":"invalid credentials"}`}
		require.Equal(t, "invalid credentials", err.Message())
	})

	t.Run("text body is truncated", func(t *testing.T) {
		body := strings.Repeat("x", 500)
		err := &clienterrors.HTTPError{Status: 500, Body: body}
		msg := err.Message()
		require.True(t, strings.HasSuffix(msg, "..."))
		require.Len(t, msg, 203)
	})

	t.Run("empty body", func(t *testing.T) {
		err := &clienterrors.HTTPError{Status: 502}
		require.Equal(t, "request failed with status 502", err.Message())
	})
}

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("get accounts: %w", &clienterrors.HTTPError{Status: 403})
	require.Equal(t, 403, clienterrors.StatusCode(wrapped))
	require.Equal(t, 0, clienterrors.StatusCode(clienterrors.ErrSessionExpired))
}

func TestValidationf(t *testing.T) {
	err := clienterrors.Validationf("email %q is malformed", "bob")
	require.ErrorIs(t, err, clienterrors.ErrValidation)
	require.Contains(t, err.Error(), `email "bob" is malformed`)
}

func TestWrapf(t *testing.T) {
	require.NoError(t, clienterrors.Wrapf(nil, "ignored"))
	err := clienterrors.Wrapf(clienterrors.ErrNoSession, "ledger %s", "L-1")
	require.Equal(t, "ledger L-1: no session", err.Error())
	require.True(t, clienterrors.Is(err, clienterrors.ErrNoSession))
}
