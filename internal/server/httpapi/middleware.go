package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// principalKey is the gin context key the authenticated user id is stored
// under.
const principalKey = "principalID"

// RequireAuth verifies the Bearer token and stores the authenticated user id
// in the request context. Requests without a valid token are rejected with
// 401 before reaching a handler.
func RequireAuth(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		userID, err := auth.GetUserIDFromToken(parts[1], secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(principalKey, userID)
		c.Next()
	}
}

// principal returns the authenticated user id set by RequireAuth.
func principal(c *gin.Context) string {
	return c.GetString(principalKey)
}
