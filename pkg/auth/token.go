package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed access JWT for the provided payload using
// the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	return mintToken(cfg, now, payload, TokenTypeAccess, cfg.AccessTokenTTL())
}

// MintRefreshToken issues a signed refresh JWT. Only the rotation endpoint
// accepts it.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	return mintToken(cfg, now, payload, TokenTypeRefresh, cfg.RefreshTokenTTL())
}

func mintToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload, tokenType string, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}

	claims := TokenClaims{
		UserID:    payload.UserID,
		Username:  payload.Username,
		Role:      payload.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseToken validates the JWT string and returns typed claims.
func ParseToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// ParseAccessToken validates the JWT and additionally requires the access
// token type, rejecting refresh tokens presented on regular endpoints.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*TokenClaims, error) {
	claims, err := ParseToken(cfg, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("unexpected token type %q", claims.TokenType)
	}
	return claims, nil
}
