package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Common error types for the Curnce client
var (
	// Session errors
	ErrSessionExpired   = errors.New("session expired")
	ErrNoSession        = errors.New("no session")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenRotated     = errors.New("token already rotated")

	// Token errors
	ErrInvalidToken  = errors.New("invalid token")
	ErrRefreshFailed = errors.New("refresh failed")

	// Client side checks, raised before anything is sent
	ErrValidation = errors.New("validation failed")

	ErrUnsupported = errors.New("unsupported operation")
)

// maxMessageLength bounds the text returned by HTTPError.Message.
const maxMessageLength = 200

// HTTPError is returned for any non-2xx response from the backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed: %d %s", e.Status, e.Body)
}

// Message returns a short message suitable for showing next to a form.
// JSON bodies are searched for the usual error fields first.
func (e *HTTPError) Message() string {
	body := strings.TrimSpace(e.Body)
	if gjson.Valid(body) {
		for _, field := range []string{"message", "error_description", "error.message", "error", "detail"} {
			if v := gjson.Get(body, field); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return truncate(v.String())
			}
		}
	}
	if body == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return truncate(body)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLength {
		return s
	}
	return string(r[:maxMessageLength]) + "..."
}

// Validationf builds an error wrapping ErrValidation.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
