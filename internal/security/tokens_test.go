package security

import (
	"testing"
	"time"
)

func TestIssueAndValidateAccess(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, jti, expiresAt, err := p.IssueAccess("sess-1", "user-1", "admin")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatalf("token/jti empty: token=%q jti=%q", token, jti)
	}
	if !expiresAt.After(time.Now().UTC()) {
		t.Errorf("expiresAt = %v, want in the future", expiresAt)
	}
	sessionID, userID, role, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if sessionID != "sess-1" {
		t.Errorf("sessionID = %q, want %q", sessionID, "sess-1")
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
	if role != "admin" {
		t.Errorf("role = %q, want %q", role, "admin")
	}
}

func TestIssueAndValidateRefresh(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, jti, _, err := p.IssueRefresh("sess-2", "user-2")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	sessionID, gotJti, userID, err := p.ValidateRefresh(token)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if sessionID != "sess-2" {
		t.Errorf("sessionID = %q, want %q", sessionID, "sess-2")
	}
	if gotJti != jti {
		t.Errorf("jti = %q, want %q", gotJti, jti)
	}
	if userID != "user-2" {
		t.Errorf("userID = %q, want %q", userID, "user-2")
	}
}

func TestValidateAccess_RejectsRefreshTokenType(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, _, _, err := p.ValidateAccess("not-a-token"); err == nil {
		t.Error("ValidateAccess accepted a malformed token")
	}
}

func TestValidate_WrongIssuer(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	signer, _ := ParsePrivateKey(testPrivateKeyPEM)
	pub, _ := ParsePublicKey(testPublicKeyPEM)
	other := NewTokenProvider(signer, pub, "other-issuer", "test-audience", time.Minute, time.Hour)
	token, _, _, err := other.IssueAccess("sess", "user", "patient")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, _, err := p.ValidateAccess(token); err == nil {
		t.Error("ValidateAccess accepted a token with wrong issuer")
	}
}
