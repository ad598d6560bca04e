package jwtmw

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextSessionID is the gin context key holding the authenticated session id.
const ContextSessionID = "sessionID"

// SessionRequired returns a Gin middleware function that validates session tokens
// and exposes the session id to downstream handlers.
func SessionRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "セッショントークンがありません"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Server misconfiguration (JWT_SECRET not set)
		if secret == "" {
			slog.Error("session token secret is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "サーバーの設定に問題があります"})
			return
		}

		// 3. Parse and verify signature, expiry and subject
		var claims jwt.RegisteredClaims
		token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid || claims.Subject == "" {
			slog.Warn("session token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "セッショントークンが無効です"})
			return
		}

		c.Set(ContextSessionID, claims.Subject)
		c.Next()
	}
}

// SessionID returns the session id stored by SessionRequired.
func SessionID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextSessionID)
	return id, id != ""
}
