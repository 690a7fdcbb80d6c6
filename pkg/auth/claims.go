package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID string
	Email  string
}

// AccessTokenClaims represents the typed JWT accepted by the storefront.
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
