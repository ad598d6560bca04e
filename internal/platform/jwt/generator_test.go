package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewGenerator は各種設定でGeneratorが正しく生成されることを検証します。
func TestNewGenerator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		secret     string
		expiration time.Duration
		expected   time.Duration
	}{
		{"standard config", "my-secret-key", time.Hour, time.Hour},
		{"long expiration", "secret", 24 * time.Hour * 30, 24 * time.Hour * 30},
		{"zero falls back to default", "s", 0, DefaultExpiration},
		{"negative falls back to default", "s", -time.Minute, DefaultExpiration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator(tt.secret, tt.expiration)
			assert.Equal(t, tt.secret, string(gen.secret))
			assert.Equal(t, tt.expected, gen.expiration)
		})
	}
}

// TestGenerator_GenerateToken は生成されたトークンがHS256で署名され、subにセッションIDを含むことを検証します。
func TestGenerator_GenerateToken(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("test-secret", 2*time.Hour)
	fixed := time.Now().Truncate(time.Second)
	gen.now = func() time.Time { return fixed }

	tokenStr, expiresAt, err := gen.GenerateToken("6f1c2a9e-session")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(2*time.Hour), expiresAt)

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(tok *jwt.Token) (interface{}, error) {
		_, ok := tok.Method.(*jwt.SigningMethodHMAC)
		assert.True(t, ok, "unexpected signing method: %v", tok.Header["alg"])
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "HS256", token.Method.Alg())
	assert.Equal(t, "6f1c2a9e-session", claims.Subject)
	assert.Equal(t, fixed.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixed.Add(2*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestGenerator_GenerateToken_EmptySubject(t *testing.T) {
	t.Parallel()

	_, _, err := NewGenerator("test-secret", time.Hour).GenerateToken("")
	assert.ErrorIs(t, err, ErrEmptySubject)
}

// TestGenerator_DifferentSessionsProduceDifferentTokens は異なるセッションに対して異なるトークンが生成されることを検証します。
func TestGenerator_DifferentSessionsProduceDifferentTokens(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("test-secret", time.Hour)

	token1, _, err := gen.GenerateToken("session-1")
	require.NoError(t, err)
	token2, _, err := gen.GenerateToken("session-2")
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		ttl      string
		expected time.Duration
		wantErr  bool
	}{
		{name: "default ttl", expected: DefaultExpiration},
		{name: "custom ttl", ttl: "30m", expected: 30 * time.Minute},
		{name: "invalid ttl", ttl: "soon", wantErr: true},
		{name: "negative ttl", ttl: "-1h", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvKeyJWTSecret, "secret")
			t.Setenv(EnvKeySessionTTL, tt.ttl)

			cfg, err := LoadConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "secret", cfg.Secret)
			assert.Equal(t, tt.expected, cfg.Expiration)
		})
	}
}
