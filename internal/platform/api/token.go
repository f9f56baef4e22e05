package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired reports a backend token past its exp claim.
var ErrTokenExpired = errors.New("api: access token expired")

// TokenExpiry returns the exp claim of a backend JWT. The signature is not
// verified here; the backend does that on every request. A zero time means
// the token carries no expiry.
func TokenExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("api: parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// CheckToken fails when the token is malformed or expires before now.
func CheckToken(token string, now time.Time) error {
	if token == "" {
		return ErrUnauthorized
	}
	exp, err := TokenExpiry(token)
	if err != nil {
		return err
	}
	if !exp.IsZero() && !now.Before(exp) {
		return ErrTokenExpired
	}
	return nil
}
