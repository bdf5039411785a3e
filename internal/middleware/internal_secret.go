package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// InternalSecret guards endpoints meant for trusted server-side callers.
// The request must carry "Authorization: Bearer <secret>" exactly matching
// the configured secret. An empty configured secret rejects everything.
func InternalSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if secret == "" || !found || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
