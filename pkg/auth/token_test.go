package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "socialio",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()

	payload := AccessTokenPayload{
		UserID:   userID,
		Username: "casey",
		Role:     "user",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Username != "casey" {
		t.Fatalf("unexpected username %s", claims.Username)
	}
	if claims.Role != "user" {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("unexpected token type %s", claims.TokenType)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti to be set")
	}
}

func TestParseAccessTokenRejectsRefreshToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "socialio",
		ExpirationMinutes: 30,
		RefreshExpMinutes: 60,
	}
	refresh, err := MintRefreshToken(cfg, time.Now().UTC(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, refresh); err == nil {
		t.Fatal("expected refresh token to be rejected")
	} else if !strings.Contains(err.Error(), "token type") {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken(cfg, refresh)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Fatalf("unexpected token type %s", claims.TokenType)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "socialio",
		ExpirationMinutes: 30,
	}
	token, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	cfg.Secret = "other-secret"
	if _, err := ParseToken(cfg, token); err == nil {
		t.Fatal("expected signature validation to fail")
	}
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "someone-else",
		ExpirationMinutes: 30,
	}
	token, err := MintAccessToken(mintCfg, time.Now().UTC(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := mintCfg
	parseCfg.Issuer = "socialio"
	if _, err := ParseToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer validation to fail")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "socialio",
		ExpirationMinutes: 30,
	}
	past := time.Now().UTC().Add(-2 * time.Hour)
	token, err := MintAccessToken(cfg, past, AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseToken(cfg, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestMintAccessTokenRequiresUserID(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "socialio",
		ExpirationMinutes: 30,
	}
	if _, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing user id to error")
	}
}
