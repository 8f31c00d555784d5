package gateway

import (
	"context"

	"github.com/rs/zerolog"
)

// Navigator sends the user back to the login entry point once the session
// cannot be recovered. A browser shell would perform a full navigation; the
// CLI prints a hint.
type Navigator interface {
	RedirectToLogin(ctx context.Context, reason error)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, reason error)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context, reason error) {
	f(ctx, reason)
}

type logNavigator struct {
	route string
	log   zerolog.Logger
}

func (n logNavigator) RedirectToLogin(_ context.Context, reason error) {
	n.log.Warn().Err(reason).Str("route", n.route).Msg("Session ended, login required")
}
