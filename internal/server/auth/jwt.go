// Package auth issues and verifies the signed, expiring tokens used for
// browser sessions and password reset links.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/timex"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose scopes a token to one use. It is carried as the JWT audience, so a
// session token cannot be replayed as a reset link and vice versa.
type Purpose string

const (
	PurposeSession       Purpose = "session"
	PurposePasswordReset Purpose = "password_reset"
)

// Claims carries the registered claims and the identity the token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

type TokenService struct {
	secret []byte
	now    timex.Clock
}

type Option func(*TokenService)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(c timex.Clock) Option {
	return func(s *TokenService) {
		s.now = c
	}
}

func NewTokenService(secret []byte, opts ...Option) *TokenService {
	s := &TokenService{secret: secret, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a token for userID that is valid for ttl and only for purpose.
func (s *TokenService) Issue(userID int64, purpose Purpose, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify returns the user id embedded in token. Every failure wraps
// common.ErrInvalidToken; an expired token additionally wraps common.ErrTokenExpired.
func (s *TokenService) Verify(tokenString string, purpose Purpose) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(purpose)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return 0, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID <= 0 {
		return 0, common.ErrInvalidToken
	}

	return claims.UserID, nil
}
