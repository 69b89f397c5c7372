package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenSigner issues a bearer token for the given subject and role.
type TokenSigner func(subject, role string, ttl time.Duration) (string, error)

// AdminAuthService guards administrative operations (bulk clear) behind a single
// operator password stored as a bcrypt hash.
type AdminAuthService struct {
	passHash  []byte
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AdminToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewAdminAuthService(passHash string, signer TokenSigner, ttl time.Duration) *AdminAuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminAuthService{passHash: []byte(strings.TrimSpace(passHash)), signToken: signer, tokenTTL: ttl}
}

// Enabled reports whether an operator password has been configured.
func (s *AdminAuthService) Enabled() bool { return len(s.passHash) > 0 }

func (s *AdminAuthService) Login(password string) (*AdminToken, error) {
	if strings.TrimSpace(password) == "" {
		return nil, NewValidationError("password required")
	}
	if !s.Enabled() {
		return nil, NewUnauthorizedError("admin access disabled")
	}
	if err := bcrypt.CompareHashAndPassword(s.passHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewUnauthorizedError("token signer not configured")
	}
	token, err := s.signToken("admin", "admin", s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AdminToken{Token: token, ExpiresAt: time.Now().UTC().Add(s.tokenTTL)}, nil
}

// HashPassword produces the value expected in the admin_password_hash setting.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
