package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the typ claim. Refresh tokens are only accepted by
// the rotation endpoint.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// TokenClaims represents the typed JWT issued to clients.
type TokenClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenType string    `json:"typ"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token carries the admin role.
func (c *TokenClaims) IsAdmin() bool {
	return c != nil && c.Role == "admin"
}
