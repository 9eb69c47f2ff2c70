package auth

import (
	"testing"
	"time"
)

func TestResetTokenRoundTrip(t *testing.T) {
	s := NewResetSigner([]byte("topsecret"))

	token := s.Issue("alice@example.com")
	email, err := s.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}
	if email != "alice@example.com" {
		t.Fatalf("expected embedded email, got %q", email)
	}
}

func TestResetTokenRejectsTampering(t *testing.T) {
	s := NewResetSigner([]byte("topsecret"))

	token := s.Issue("alice@example.com")
	if _, err := s.Verify(token + "x"); err == nil {
		t.Fatalf("expected tampered token to fail")
	}
	if _, err := s.Verify("not.a.token"); err == nil {
		t.Fatalf("expected malformed token to fail")
	}

	// A token signed with a different secret must not verify.
	other := NewResetSigner([]byte("othersecret")).Issue("alice@example.com")
	if _, err := s.Verify(other); err == nil {
		t.Fatalf("expected foreign-secret token to fail")
	}
}

func TestResetTokenExpires(t *testing.T) {
	s := NewResetSigner([]byte("topsecret"))
	token := s.Issue("alice@example.com")

	s.now = func() time.Time { return time.Now().Add(ResetTokenTTL + time.Minute) }
	if _, err := s.Verify(token); err != ErrResetTokenExpired {
		t.Fatalf("expected ErrResetTokenExpired, got %v", err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !CheckPasswordHash("correct horse battery", hash) {
		t.Fatalf("expected password to verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
	if err := ValidatePassword("long enough password"); err != nil {
		t.Fatalf("expected password to pass, got %v", err)
	}
}
