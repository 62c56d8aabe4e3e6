// Package credential hashes passwords and issues the bearer tokens that bind a
// request to a user. It performs no I/O.
package credential

import (
	"errors"
	"strings"
	"time"

	"github.com/Anveeka07/TaskManager/pkg/crypto"
	jwtpkg "github.com/Anveeka07/TaskManager/pkg/jwt"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken covers every token failure: bad signature, expiry, malformed input.
var ErrInvalidToken = errors.New("credential: invalid token")

// Service signs and verifies credentials with a process-wide secret.
type Service struct {
	secret     string
	ttl        time.Duration
	bcryptCost int
}

// New constructs a Service. A non-positive ttl selects DefaultTokenTTL and a zero cost
// selects bcrypt's default.
func New(secret string, ttl time.Duration, bcryptCost int) Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return Service{secret: secret, ttl: ttl, bcryptCost: bcryptCost}
}

// Hash returns a salted one-way hash of password.
func (s Service) Hash(password string) ([]byte, error) {
	return crypto.HashPassword(password, s.bcryptCost)
}

// Verify reports whether password matches hash.
func (s Service) Verify(password string, hash []byte) bool {
	return crypto.ComparePassword(hash, password) == nil
}

// IssueToken returns a signed token for userID that expires after the configured ttl.
func (s Service) IssueToken(userID string) (string, error) {
	return jwtpkg.GenerateToken(userID, s.secret, s.ttl)
}

// VerifyToken returns the user bound to token or ErrInvalidToken.
func (s Service) VerifyToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", ErrInvalidToken
	}
	claims, err := jwtpkg.Parse(trimmed, s.secret)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	return claims.UserID, nil
}

// TTL reports the lifetime of issued tokens.
func (s Service) TTL() time.Duration {
	return s.ttl
}
