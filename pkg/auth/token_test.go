package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greengomarket/greengo-backend/pkg/config"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "greengo",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.NewString()
	role := enums.UserRoleAdmin

	payload := AccessTokenPayload{
		UserID: userID,
		Email:  "admin@greengo.test",
		Role:   &role,
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
	if claims.Email != "admin@greengo.test" {
		t.Fatalf("email not preserved, got %q", claims.Email)
	}
	if claims.Role == nil || *claims.Role != enums.UserRoleAdmin {
		t.Fatalf("role not preserved")
	}
	if !claims.IsAdmin() {
		t.Fatalf("expected admin claims")
	}

	// RegisteredClaims is embedded, so access fields directly.
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenCustomerHasNoRole(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "greengo",
		ExpirationMinutes: 30,
	}
	payload := AccessTokenPayload{
		UserID: uuid.NewString(),
		Email:  "shopper@greengo.test",
	}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != nil {
		t.Fatalf("expected nil role for customer, got %v", *claims.Role)
	}
	if claims.IsAdmin() {
		t.Fatalf("customer claims must not be admin")
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "greengo",
		ExpirationMinutes: 10,
	}
	payload := AccessTokenPayload{
		UserID: uuid.NewString(),
		Email:  "shopper@greengo.test",
	}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token+"x")
	if err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "greengo",
		ExpirationMinutes: 15,
	}
	now := time.Now().Add(-time.Hour)
	payload := AccessTokenPayload{
		UserID: uuid.NewString(),
		Email:  "shopper@greengo.test",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenInvalidRole(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "greengo",
		ExpirationMinutes: 5,
	}
	bad := enums.UserRole("superuser")
	payload := AccessTokenPayload{
		UserID: uuid.NewString(),
		Role:   &bad,
	}

	if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil {
		t.Fatal("expected invalid role error")
	}
}
