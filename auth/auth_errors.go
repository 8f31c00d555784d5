package auth

import "errors"

var (
	PasswordRequiredErr  = errors.New("password is required")
	PasswordUnchangedErr = errors.New("new password must differ from the current one")
	NotAuthenticatedErr  = errors.New("no authenticated user")
	UnknownIdentityErr   = errors.New("identity check returned no user")
)
