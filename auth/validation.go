package auth

import (
	"fmt"
	"strings"

	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/users"
)

// Validator holds the client side checks run before an auth request is sent.
// Failures wrap ErrValidation and never reach the network.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateLogin(req oauthmodel.LoginRequest) error {
	if err := users.ValidateEmail(req.Email); err != nil {
		return invalid(err)
	}
	if req.Password == "" {
		return invalid(PasswordRequiredErr)
	}
	return nil
}

func (v *Validator) ValidateRegistration(req oauthmodel.RegisterRequest) error {
	if err := users.ValidateEmail(req.Email); err != nil {
		return invalid(err)
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return invalid(err)
	}
	return nil
}

// ValidateTwoFactorCode accepts exactly six digits, ignoring surrounding
// space, and returns the trimmed code.
func (v *Validator) ValidateTwoFactorCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return "", invalid(oauthmodel.ErrInvalidCode)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return "", invalid(oauthmodel.ErrInvalidCode)
		}
	}
	return code, nil
}

func (v *Validator) ValidatePasswordChange(req oauthmodel.PasswordChangeRequest) error {
	if req.CurrentPassword == "" {
		return invalid(PasswordRequiredErr)
	}
	if req.NewPassword == req.CurrentPassword {
		return invalid(PasswordUnchangedErr)
	}
	if err := users.ValidatePasswordStrength(req.NewPassword); err != nil {
		return invalid(err)
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", clienterrors.ErrValidation, err)
}
