// Package auth holds the bearer token the feeds and the backend client use.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"casino-monitor/src/helpers"
)

// TokenSource keeps the current session token. JWTs are inspected for their
// expiry without verifying the signature; the backend does that. Opaque
// tokens are accepted as long as they are non-empty.
type TokenSource struct {
	mu        sync.RWMutex
	token     string
	subject   string
	expiresAt time.Time
	leeway    time.Duration
	now       func() time.Time
}

func NewTokenSource(token string) *TokenSource {
	s := &TokenSource{leeway: 30 * time.Second, now: time.Now}
	s.Set(token)
	return s
}

// -----------------------------------------------------------------------------

// Set replaces the token and re-reads its claims.
func (s *TokenSource) Set(token string) {
	subject, expiresAt := inspect(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.subject = subject
	s.expiresAt = expiresAt
}

func (s *TokenSource) Clear() {
	s.Set("")
}

// Token returns the token, or an error wrapping ErrNotAuthenticated when
// there is none or it has expired.
func (s *TokenSource) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", helpers.NewAuthError("no session token", helpers.ErrNotAuthenticated)
	}
	if !s.expiresAt.IsZero() && !s.now().Add(s.leeway).Before(s.expiresAt) {
		return "", helpers.NewAuthError("session token expired at "+s.expiresAt.Format(time.RFC3339), helpers.ErrNotAuthenticated)
	}
	return s.token, nil
}

// Authenticated reports whether Token would succeed.
func (s *TokenSource) Authenticated() bool {
	_, err := s.Token()
	return err == nil
}

func (s *TokenSource) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *TokenSource) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

// -----------------------------------------------------------------------------

func inspect(token string) (string, time.Time) {
	if token == "" {
		return "", time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", time.Time{}
	}
	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	// Backend tokens carry the user id in jti rather than sub.
	subject, _ := claims.GetSubject()
	if subject == "" {
		if jti, ok := claims["jti"].(string); ok {
			subject = jti
		}
	}
	return subject, expiresAt
}
