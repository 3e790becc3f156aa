package model

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of an access token.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
