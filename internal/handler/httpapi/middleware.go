package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// authMiddleware resolves the bearer token to the identity it was issued for
// and stores it on the gin context for the handlers downstream.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "no authorization header"})
			return
		}
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid authorization header"})
			return
		}
		identity, ok := h.auth.IdentityFromToken(c.Request.Context(), parts[1])
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid token"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func callerIdentity(c *gin.Context) string {
	return c.GetString(identityKey)
}

// bearerToken returns the raw token for handlers that need it (logout).
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}
