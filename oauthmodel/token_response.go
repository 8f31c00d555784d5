package oauthmodel

import (
	"github.com/curnce/curnce-client/internal/utils"
	"github.com/curnce/curnce-client/users"
)

// TokenResponse is the body returned by login, register, 2FA verify and
// refresh. Login returns RequiresTwoFactor + PreAuthToken instead of tokens
// when the account has two-factor authentication enabled.
type TokenResponse struct {
	// Token is the short-lived bearer credential.
	Token string `json:"token,omitempty"`

	// AccessToken is accepted as an alias of Token.
	AccessToken string `json:"accessToken,omitempty"`

	// RefreshToken is rotated on every refresh. An empty value on a refresh
	// response means the previous refresh token stays valid.
	RefreshToken string `json:"refreshToken,omitempty"`

	ExpiresIn int         `json:"expiresIn,omitempty"` // seconds
	TenantID  string      `json:"tenantId,omitempty"`
	User      *users.User `json:"user,omitempty"`

	RequiresTwoFactor bool   `json:"requires2fa,omitempty"`
	PreAuthToken      string `json:"preAuthToken,omitempty"`
}

// Access returns the access token whichever field the backend used.
func (t *TokenResponse) Access() string {
	if t == nil {
		return ""
	}
	return utils.FirstNonEmpty(t.Token, t.AccessToken)
}

// Tenant returns the tenant from the response or, failing that, its user.
func (t *TokenResponse) Tenant() string {
	if t == nil {
		return ""
	}
	if t.User != nil {
		return utils.FirstNonEmpty(t.TenantID, t.User.TenantID)
	}
	return t.TenantID
}
