package auth

import (
	"testing"
	"time"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret-password" {
		t.Fatalf("expected hash to differ from plaintext")
	}
	if !VerifyPassword(hash, "secret-password") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}

func TestIssueAndParseToken(t *testing.T) {
	token, tokenID, expiresAt, err := IssueToken("test-secret", 42, "chauffeur", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if tokenID == "" {
		t.Fatalf("expected non-empty token id")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry")
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.ID != tokenID {
		t.Fatalf("expected jti %s, got %s", tokenID, claims.ID)
	}
	if claims.Role != "chauffeur" {
		t.Fatalf("expected role chauffeur, got %s", claims.Role)
	}
	userID, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user id 42, got %d", userID)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, _, err := IssueToken("secret-a", 1, "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatalf("expected wrong secret to fail")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, _, _, err := IssueToken("test-secret", 1, "admin", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken("test-secret", token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
