package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextAdminKey is where the middleware stores the authenticated admin
// username for downstream handlers.
const ContextAdminKey = "admin_username"

// AdminAuth gates admin routes on a valid bearer token and places the admin
// identity into the request context. Identity is request-scoped; there is no
// ambient session state.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Missing authorization header"})
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authorization format"})
			return
		}
		claims, err := ValidateToken(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}
		c.Set(ContextAdminKey, claims.Username)
		c.Next()
	}
}
