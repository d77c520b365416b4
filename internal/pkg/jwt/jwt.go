package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the upstream API puts into its bearer tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

var ErrExpired = errors.New("token expired")

// Inspect reads the claims of a JWT without verifying its signature; the
// upstream API owns the signing key. ok is false for opaque tokens.
func Inspect(tokenString string) (*Claims, bool) {
	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// CheckExpiry returns ErrExpired when tokenString is a JWT whose exp is before now.
func CheckExpiry(tokenString string, now time.Time) error {
	claims, ok := Inspect(tokenString)
	if !ok || claims.ExpiresAt == nil {
		return nil
	}
	if !claims.ExpiresAt.Time.After(now) {
		return ErrExpired
	}
	return nil
}
