package oauthmodel

import "errors"

var (
	ErrMissingAccessToken = errors.New("response carried no access token")
	ErrMissingPreAuth     = errors.New("no pending two-factor login")
	ErrInvalidCode        = errors.New("two-factor code must be 6 digits")
)
