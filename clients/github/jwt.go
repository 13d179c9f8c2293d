package github

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// appJWTSigner mints and caches the short-lived App JWT GitHub requires for
// app-level endpoints
type appJWTSigner struct {
	appID      string
	privateKey []byte

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func newAppJWTSigner(appID string, privateKey []byte) (*appJWTSigner, error) {
	// Validate private key can be parsed
	if _, err := jwt.ParseRSAPrivateKeyFromPEM(privateKey); err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &appJWTSigner{
		appID:      appID,
		privateKey: privateKey,
	}, nil
}

func (s *appJWTSigner) getToken() (string, error) {
	s.mu.RLock()
	// Reuse the cached token while it still has a 2 minute safety margin
	if s.token != "" && time.Now().Add(2*time.Minute).Before(s.expiresAt) {
		defer s.mu.RUnlock()
		return s.token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.token != "" && time.Now().Add(2*time.Minute).Before(s.expiresAt) {
		return s.token, nil
	}

	token, expiresAt, err := s.mint()
	if err != nil {
		return "", err
	}

	s.token = token
	s.expiresAt = expiresAt

	return token, nil
}

func (s *appJWTSigner) mint() (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(10 * time.Minute) // GitHub max is 10 minutes

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iat": jwt.NewNumericDate(now.Add(-60 * time.Second)), // 60 seconds in past for clock drift
		"exp": jwt.NewNumericDate(expiresAt),
		"iss": s.appID,
	})

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(s.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse private key: %w", err)
	}

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}
