package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/internal/metrics"
)

// exchangeState is a step of the request protocol:
//
//	send --401--> refresh --> resend --> done
//	  \--other--> done
//
// resend is terminal: its outcome, 401 included, goes to the caller.
type exchangeState int

const (
	stateSend exchangeState = iota
	stateRefresh
	stateResend
)

func (c *Client) exchange(ctx context.Context, req *request) (*result, error) {
	var (
		accessToken string
		res         *result
		err         error
	)
	if !req.anonymous {
		accessToken = c.sessions.AccessToken()
	}

	state := stateSend
	for {
		switch state {
		case stateSend:
			res, err = c.send(ctx, req, accessToken)
			if err != nil {
				return nil, err
			}
			if res.status != http.StatusUnauthorized || req.anonymous {
				return res, nil
			}
			state = stateRefresh

		case stateRefresh:
			accessToken, err = c.recoverSession(ctx, accessToken)
			if err != nil {
				return nil, err
			}
			state = stateResend

		case stateResend:
			return c.send(ctx, req, accessToken)
		}
	}
}

// recoverSession returns an access token to resend with after rejected was
// refused. If a concurrent request already rotated the token the new one is
// reused without another refresh call.
func (c *Client) recoverSession(ctx context.Context, rejected string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.sessions.AccessToken(); current != "" && current != rejected {
		metrics.ObserveRefresh("reused")
		return current, nil
	}

	refreshToken := c.sessions.RefreshToken()
	if refreshToken == "" {
		return "", c.expire(ctx, clienterrors.ErrNoSession)
	}

	c.log.Info().Msg("Access token rejected, refreshing")
	tokens, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		// the caller gave up, the session itself may still be fine
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		metrics.ObserveRefresh("failure")
		return "", c.expire(ctx, err)
	}

	if err := c.sessions.Rotate(ctx, rejected, tokens); err != nil {
		if errors.Is(err, clienterrors.ErrTokenRotated) {
			if current := c.sessions.AccessToken(); current != "" {
				metrics.ObserveRefresh("reused")
				return current, nil
			}
			return "", c.expire(ctx, err)
		}
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	metrics.ObserveRefresh("success")
	return tokens.Access(), nil
}

// expire ends the session after an unrecoverable authentication failure.
func (c *Client) expire(ctx context.Context, cause error) error {
	c.log.Warn().Err(cause).Msg("Session could not be refreshed, clearing it")
	metrics.ObserveSessionExpired()

	// clearing must finish even if the caller is cancelling
	if err := c.sessions.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Err(err).Msg("Failed to clear session")
	}
	c.navigator.RedirectToLogin(ctx, cause)

	return fmt.Errorf("%w: %w", clienterrors.ErrSessionExpired, cause)
}
