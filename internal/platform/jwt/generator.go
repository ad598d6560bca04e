package jwtmw

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// EnvKeyJWTSecret is the environment variable holding the HMAC signing key.
	EnvKeyJWTSecret = "JWT_SECRET"
	// EnvKeySessionTTL is the environment variable holding the token lifetime.
	EnvKeySessionTTL = "SESSION_TTL"
	// DefaultExpiration matches the default lifetime of a stored session.
	DefaultExpiration = 2 * time.Hour
)

// ErrEmptySubject is returned when a token is requested without a session id.
var ErrEmptySubject = errors.New("session id is empty")

// Config holds session token settings.
type Config struct {
	Secret     string
	Expiration time.Duration
}

// LoadConfig loads session token configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{
		Secret:     os.Getenv(EnvKeyJWTSecret),
		Expiration: DefaultExpiration,
	}
	if v := os.Getenv(EnvKeySessionTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid %s %q", EnvKeySessionTTL, v)
		}
		cfg.Expiration = d
	}
	return cfg, nil
}

// Generator defines the interface for session token generation.
type Generator interface {
	// GenerateToken creates a signed token bound to the given session and returns its expiry.
	GenerateToken(sessionID string) (string, time.Time, error)
}

// generator implements the Generator interface.
type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

var _ Generator = (*generator)(nil)

// NewGenerator creates a new session token generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *generator {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed HS256 token whose subject is the session id.
func (g *generator) GenerateToken(sessionID string) (string, time.Time, error) {
	if sessionID == "" {
		return "", time.Time{}, ErrEmptySubject
	}
	now := g.now()
	expiresAt := now.Add(g.expiration)
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}
