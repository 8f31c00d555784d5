package token

import (
	"fmt"
	"strings"
	"time"

	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/internal/utils"
	"github.com/curnce/curnce-client/users"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is what the client can read from an access token without the
// backend's key. Nothing here is trusted for authorization; the backend
// re-validates every request.
type Claims struct {
	ID        string
	Subject   string
	Email     string
	Role      string
	Roles     []string
	TenantID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseClaims decodes the payload of a JWT access token without verifying
// its signature.
func ParseClaims(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, fmt.Errorf("%w: empty token", clienterrors.ErrInvalidToken)
	}

	unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", clienterrors.ErrInvalidToken, err)
	}

	claims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: error extracting claims", clienterrors.ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	userID, _ := claims["userId"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	tenant, _ := claims["tenantId"].(string)
	tenantAlt, _ := claims["tenant"].(string)
	jti, _ := claims["jti"].(string)

	var roles []string
	if claimRoles, ok := claims["roles"].([]any); ok {
		roles = utils.ToStringSlice(claimRoles)
	}
	if role == "" && len(roles) > 0 {
		role = roles[0]
	}

	c := &Claims{
		ID:       jti,
		Subject:  utils.FirstNonEmpty(sub, userID),
		Email:    email,
		Role:     role,
		Roles:    roles,
		TenantID: utils.FirstNonEmpty(tenant, tenantAlt),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// ExpiresWithin reports whether the token expires within d. Tokens without an
// exp claim never expire from the client's point of view.
func (c *Claims) ExpiresWithin(d time.Duration) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !NowTimeFunc().Add(d).Before(c.ExpiresAt)
}

// User converts the claims into the identity shape used by the auth context.
func (c *Claims) User() *users.User {
	return &users.User{
		ID:       c.Subject,
		Email:    c.Email,
		Role:     users.RoleType(c.Role),
		TenantID: c.TenantID,
	}
}
