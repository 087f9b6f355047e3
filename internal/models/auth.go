package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims are the claims inside both session cookies. Clients never
// read them; only the server parses its own tokens.
type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RevokedToken is a refresh token JTI that may no longer be exchanged.
type RevokedToken struct {
	JTI       string
	UserID    string
	TokenType string
	Reason    string
	ExpiresAt time.Time
}
