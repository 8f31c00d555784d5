package users_test

import (
	"testing"

	"github.com/curnce/curnce-client/users"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, users.ValidateEmail("jane@acme.io"))
	})

	t.Run("empty", func(t *testing.T) {
		err := users.ValidateEmail("  ")
		require.Error(t, err)
		require.Contains(t, err.Error(), "required")
	})

	t.Run("no at sign", func(t *testing.T) {
		require.Error(t, users.ValidateEmail("jane.acme.io"))
	})

	t.Run("display name form", func(t *testing.T) {
		require.Error(t, users.ValidateEmail("Jane <jane@acme.io>"))
	})

	t.Run("no domain dot", func(t *testing.T) {
		err := users.ValidateEmail("jane@localhost")
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing a domain")
	})
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Ledger2024"))

	err := users.ValidatePasswordStrength("short1A")
	require.Contains(t, err.Error(), "at least 8 characters")

	err = users.ValidatePasswordStrength("alllowercase1")
	require.Contains(t, err.Error(), "uppercase")

	err = users.ValidatePasswordStrength("ALLUPPERCASE1")
	require.Contains(t, err.Error(), "lowercase")

	err = users.ValidatePasswordStrength("NoNumbersHere")
	require.Contains(t, err.Error(), "number")
}

func TestUserRoles(t *testing.T) {
	u := &users.User{ID: "u-1", Role: users.RoleAdmin}
	require.True(t, u.IsAdmin())
	require.True(t, u.HasRole(users.RoleViewer, users.RoleAdmin))
	require.False(t, u.HasRole(users.RoleAuditor))

	var anonymous *users.User
	require.False(t, anonymous.IsAdmin())
}
