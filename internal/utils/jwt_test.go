package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenCarriesSubjectAndRole(test *testing.T) {
	test.Parallel()
	const secret = "test-secret"
	at, err := NewAccessToken(secret, "6f1f2f33-0000-4000-8000-000000000001", "OWNER", 15)
	if err != nil {
		test.Fatalf("NewAccessToken failed: %v", err)
	}
	parsed, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		test.Fatalf("token did not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "6f1f2f33-0000-4000-8000-000000000001" {
		test.Fatalf("unexpected sub claim: %v", claims["sub"])
	}
	if claims["role"] != "OWNER" {
		test.Fatalf("unexpected role claim: %v", claims["role"])
	}
	if !at.Exp.After(time.Now().UTC()) {
		test.Fatal("expected a future expiry")
	}
}

func TestRefreshTokenHashIsStable(test *testing.T) {
	test.Parallel()
	rt, err := NewRefreshToken(30)
	if err != nil {
		test.Fatalf("NewRefreshToken failed: %v", err)
	}
	if len(rt.Raw) != 96 {
		test.Fatalf("expected 96 hex chars, got %d", len(rt.Raw))
	}
	if HashRefreshRaw(rt.Raw) != HashRefreshRaw(rt.Raw) {
		test.Fatal("hash must be deterministic")
	}
	other, _ := NewRefreshToken(30)
	if rt.Raw == other.Raw {
		test.Fatal("two refresh tokens must not collide")
	}
}
