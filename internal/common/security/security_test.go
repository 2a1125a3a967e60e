package security

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	token, expiresAt, err := issuer.GenerateToken("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt %v is not in the future", expiresAt)
	}

	claims, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if id, _ := GetUserIDFromClaims(claims); id != "user-1" {
		t.Errorf("user_id = %q", id)
	}
	if email, _ := GetEmailFromClaims(claims); email != "ana@example.com" {
		t.Errorf("email = %q", email)
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	token, _, err := NewTokenIssuer([]byte("one"), time.Hour).GenerateToken("u", "e@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewTokenIssuer([]byte("two"), time.Hour).ParseToken(token); err == nil {
		t.Error("ParseToken() accepted a token signed with another key")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.GenerateToken("u", "e@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.ParseToken(token); err == nil {
		t.Error("ParseToken() accepted an expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Error("CheckPasswordHash() rejected the right password")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("CheckPasswordHash() accepted a wrong password")
	}
}

func TestGeneratePassword(t *testing.T) {
	pwd, err := GeneratePassword(8)
	if err != nil {
		t.Fatalf("GeneratePassword() error = %v", err)
	}
	if len(pwd) != 8 {
		t.Errorf("len = %d, want 8", len(pwd))
	}
	for _, c := range pwd {
		if !strings.ContainsRune(generatedPasswordAlphabet, c) {
			t.Errorf("unexpected character %q", c)
		}
	}
}
