package mockapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/curnce/curnce-client/oauthmodel"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// AccessTokenTTL is the lifetime written into the exp claim.
var AccessTokenTTL = 15 * time.Minute

var errTokenRevoked = errors.New("token expired")

// issueTokens creates a new access/refresh pair for user. Callers hold s.mu.
func (s *Server) issueTokens(user *User) (*oauthmodel.TokenResponse, error) {
	jti := uuid.NewString()
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"role":     string(user.Role),
		"tenantId": user.TenantID,
		"iat":      now.Unix(),
		"exp":      now.Add(AccessTokenTTL).Unix(),
		"jti":      jti,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}

	refresh := uuid.NewString()
	s.activeAccess[jti] = user.ID
	s.refreshTokens[refresh] = user.ID

	u := user.User
	return &oauthmodel.TokenResponse{
		Token:        signed,
		RefreshToken: refresh,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
		TenantID:     user.TenantID,
		User:         &u,
	}, nil
}

// verifyAccessToken checks signature, expiry and that the token has not been
// expired through ExpireAccessTokens. It returns the subject.
func (s *Server) verifyAccessToken(raw string) (string, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (interface{}, error) {
		return s.signingKey, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(NowTimeFunc))
	if err != nil {
		return "", err
	}

	jti, _ := claims["jti"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.activeAccess[jti]
	if !ok {
		return "", errTokenRevoked
	}
	return userID, nil
}
