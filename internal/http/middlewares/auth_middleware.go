package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie that carries the signed session token.
const SessionCookie = "access_token"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (accountID string, err error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth resolves the session from the access_token cookie, falling
// back to a Bearer header for non-browser clients.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)

		if err != nil || raw == "" {
			authHeader := c.GetHeader("Authorization")

			if strings.HasPrefix(authHeader, "Bearer ") {
				raw = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			}
		}

		if raw == "" {
			abortUnauthorized(c, "Missing session token")
			return
		}

		accountID, err := m.tokens.Verify(raw)

		if err != nil {
			abortUnauthorized(c, "Invalid session token")
			return
		}

		c.Set(CtxAccountID, accountID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// Helper so handlers don't need to know the magic key.

func AccountIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxAccountID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
