// Package auth is the request-layer authentication: it binds HTTP callers to
// opaque identities. Registration mints an identity plus a one-time API
// secret; login exchanges the secret for a JWT access token and a redis-backed
// refresh token. The core registries never see any of this.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nebulavault/internal/repository/blacklist"
	"nebulavault/internal/repository/refreshtoken"
	"nebulavault/internal/vaulterr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshTokenTTL = 7 * 24 * time.Hour
	accessTokenTTL  = 3 * time.Hour
)

// CredentialStore persists bcrypt hashes of API secrets by identity.
type CredentialStore interface {
	Save(ctx context.Context, identity, secretHash string) error
	GetHash(ctx context.Context, identity string) (string, error)
	Delete(ctx context.Context, identity string) error
}

type Service struct {
	creds     CredentialStore
	jwtSecret string
	refresh   *refreshtoken.TokenRepo
	blacklist *blacklist.Blacklist
}

func New(creds CredentialStore, jwtSecret string, refresh *refreshtoken.TokenRepo, bl *blacklist.Blacklist) *Service {
	return &Service{creds: creds, jwtSecret: jwtSecret, refresh: refresh, blacklist: bl}
}

// NewIdentity mints a fresh opaque identity for a registration.
func (s *Service) NewIdentity() string {
	return uuid.NewString()
}

// CreateCredential generates the API secret for identity and stores its hash.
// The plaintext secret is returned exactly once.
func (s *Service) CreateCredential(ctx context.Context, identity string) (string, error) {
	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	if err := s.creds.Save(ctx, identity, string(hash)); err != nil {
		return "", err
	}
	return secret, nil
}

// EnsureCredential seeds a known secret (the configured admin one) without
// overwriting an existing credential.
func (s *Service) EnsureCredential(ctx context.Context, identity, secret string) error {
	existing, err := s.creds.GetHash(ctx, identity)
	if err != nil {
		return err
	}
	if existing != "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}
	return s.creds.Save(ctx, identity, string(hash))
}

// DeleteCredential removes a credential, used to compensate a registration
// that failed after the credential was written.
func (s *Service) DeleteCredential(ctx context.Context, identity string) error {
	return s.creds.Delete(ctx, identity)
}

// Login exchanges an identity and its API secret for an access/refresh token
// pair.
func (s *Service) Login(ctx context.Context, identity, secret string) (string, string, error) {
	hash, err := s.creds.GetHash(ctx, identity)
	if err != nil {
		return "", "", err
	}
	if hash == "" {
		return "", "", vaulterr.ErrNotAuthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return "", "", vaulterr.ErrNotAuthorized
	}

	accessToken, err := s.generateJWT(identity)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.generateRefreshToken(ctx, identity)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

// IdentityFromToken resolves a bearer token to the identity it was issued
// for, rejecting blacklisted, malformed and expired tokens.
func (s *Service) IdentityFromToken(ctx context.Context, token string) (string, bool) {
	revoked, err := s.blacklist.Contains(ctx, token)
	if err != nil || revoked {
		return "", false
	}
	payload := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, payload, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !parsed.Valid || payload.Subject == "" {
		return "", false
	}
	return payload.Subject, true
}

// Logout drops the refresh token and blacklists the access token until it
// would have expired.
func (s *Service) Logout(ctx context.Context, identity, accessToken string) error {
	if err := s.refresh.Delete(ctx, identity); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	payload := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(accessToken, payload, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if err := s.blacklist.Add(ctx, accessToken, payload.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// RefreshToken rotates both tokens when the presented refresh token matches
// the stored one.
func (s *Service) RefreshToken(ctx context.Context, identity, oldRefreshToken string) (string, string, error) {
	valid, err := s.refresh.Validate(ctx, identity, oldRefreshToken)
	if err != nil || !valid {
		return "", "", errors.New("expired refresh token")
	}
	accessToken, err := s.generateJWT(identity)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.generateRefreshToken(ctx, identity)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (s *Service) generateJWT(identity string) (string, error) {
	payload := jwt.RegisteredClaims{
		Subject:   identity,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *Service) generateRefreshToken(ctx context.Context, identity string) (string, error) {
	token := uuid.NewString()
	if err := s.refresh.Save(ctx, identity, token, refreshTokenTTL); err != nil {
		return "", err
	}
	return token, nil
}
