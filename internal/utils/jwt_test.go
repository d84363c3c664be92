package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("test-secret", 42, "CUSTOMER", 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"].(float64) != 42 {
		t.Fatalf("sub claim = %v", claims["sub"])
	}
	if claims["role"] != "CUSTOMER" {
		t.Fatalf("role claim = %v", claims["role"])
	}
	if time.Until(at.Exp) > 16*time.Minute {
		t.Fatalf("expiry too far out: %v", at.Exp)
	}
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw token length = %d, want 96 hex chars", len(rt.Raw))
	}
	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	if h1 != h2 {
		t.Fatalf("hash not deterministic")
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h1))
	}
	other, _ := NewRefreshToken(7)
	if HashRefreshRaw(other.Raw) == h1 {
		t.Fatalf("distinct tokens must hash differently")
	}
}
