package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const testSecret = "test-secret-key"

func runMiddleware(secret, authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	SessionRequired(secret)(c)
	return w, c
}

// TestSessionRequired_MissingBearerToken はBearerトークンがない場合やプレフィックスが不正な場合に401が返されることを検証します。
func TestSessionRequired_MissingBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase", "bearer token123"},
		{"no space after Bearer", "Bearertoken123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, c := runMiddleware(testSecret, tt.authHeader)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.True(t, c.IsAborted())
		})
	}
}

// TestSessionRequired_MissingSecret は署名鍵が未設定の場合に500が返されることを検証します。
func TestSessionRequired_MissingSecret(t *testing.T) {
	t.Parallel()

	w, _ := runMiddleware("", "Bearer sometoken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestSessionRequired_InvalidToken は不正なトークン（改ざん・期限切れ等）で401が返されることを検証します。
func TestSessionRequired_InvalidToken(t *testing.T) {
	t.Parallel()

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noSubjectStr, _ := noSubject.SignedString([]byte(testSecret))

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "s-1"})
	noExpiryStr, _ := noExpiry.SignedString([]byte(testSecret))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "s-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsignedStr, _ := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", createToken(t, "wrong-secret", "s-1", time.Hour)},
		{"expired token", createToken(t, testSecret, "s-1", -time.Hour)},
		{"missing subject", noSubjectStr},
		{"missing expiry", noExpiryStr},
		{"none algorithm", unsignedStr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, c := runMiddleware(testSecret, "Bearer "+tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			_, ok := SessionID(c)
			assert.False(t, ok)
		})
	}
}

// TestSessionRequired_ValidToken は有効なトークンでリクエストが通過し、コンテキストにセッションIDが設定されることを検証します。
func TestSessionRequired_ValidToken(t *testing.T) {
	t.Parallel()

	token := createToken(t, testSecret, "session-42", time.Hour)

	w, c := runMiddleware(testSecret, "Bearer "+token)
	assert.False(t, c.IsAborted(), "response: %s", w.Body.String())

	id, ok := SessionID(c)
	assert.True(t, ok)
	assert.Equal(t, "session-42", id)
}

// createToken はテスト用に指定されたシークレットとセッションIDで署名済みトークンを生成します。
func createToken(t *testing.T, secret, sessionID string, expiration time.Duration) string {
	t.Helper()

	gen := NewGenerator(secret, time.Hour)
	gen.expiration = expiration
	signed, _, err := gen.GenerateToken(sessionID)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
