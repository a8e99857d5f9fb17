// Package auth implements account signup/login, bearer-token sessions, and
// the password reset flow. Tokens are random and stored only as SHA-256
// hashes; a leaked session table cannot be replayed.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidCredentials is returned on a bad email/password pair. Login
	// never says which half was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when a bearer token does not resolve to a
	// live session.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidResetCode is returned when a reset code is wrong or expired.
	ErrInvalidResetCode = errors.New("invalid or expired reset code")
	// ErrResetNotVerified is returned when a password reset is attempted
	// before the emailed code was verified.
	ErrResetNotVerified = errors.New("reset code not verified")
)

// Session is one issued bearer token, stored hashed.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionStore defines persistence for sessions.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	GetByTokenHash(ctx context.Context, hash string) (*Session, error)
	DeleteByTokenHash(ctx context.Context, hash string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// newToken returns a fresh random bearer token and its storage hash.
func newToken() (token, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", errors.Wrap(err, "read random")
	}
	token = hex.EncodeToString(raw)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// newResetCode returns a 6-digit numeric code and its storage hash. The code
// is what lands in the user's inbox, so it stays short.
func newResetCode() (code, hash string, err error) {
	raw := make([]byte, 4)
	if _, err := rand.Read(raw); err != nil {
		return "", "", errors.Wrap(err, "read random")
	}
	n := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	code = padCode(n % 1000000)
	return code, hashToken(code), nil
}

func padCode(n uint32) string {
	const digits = "0123456789"
	buf := [6]byte{}
	for i := 5; i >= 0; i-- {
		buf[i] = digits[n%10]
		n /= 10
	}
	return string(buf[:])
}
