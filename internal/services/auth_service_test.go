package services

import (
	"testing"
	"time"
)

func TestAdminLogin(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	var gotSubject, gotRole string
	svc := NewAdminAuthService(hash, func(subject, role string, ttl time.Duration) (string, error) {
		gotSubject, gotRole = subject, role
		return "token:" + role, nil
	}, time.Hour)

	if !svc.Enabled() {
		t.Fatalf("expected admin access to be enabled")
	}
	tok, err := svc.Login("Secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if tok.Token != "token:admin" || gotSubject != "admin" || gotRole != "admin" {
		t.Fatalf("unexpected token %+v (%s/%s)", tok, gotSubject, gotRole)
	}
	if time.Until(tok.ExpiresAt) <= 0 {
		t.Fatalf("token already expired: %v", tok.ExpiresAt)
	}

	if _, err := svc.Login("wrong"); !IsCode(err, ErrorUnauthorized) {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}
	if _, err := svc.Login("  "); !IsCode(err, ErrorValidation) {
		t.Fatalf("expected validation error for blank password, got %v", err)
	}
}

func TestAdminLoginDisabledWithoutHash(t *testing.T) {
	svc := NewAdminAuthService("", nil, 0)
	if svc.Enabled() {
		t.Fatalf("expected admin access to be disabled")
	}
	if _, err := svc.Login("anything"); !IsCode(err, ErrorUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
