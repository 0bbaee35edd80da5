package middleware

import (
	"net/http"
	"strings"

	"poker-club/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	ContextOperatorID = "operator_id"
	ContextRole       = "role"
)

// RequireAuth validates the bearer token and stores the operator identity
// on the request context.
func RequireAuth(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		operatorID, role, err := authSvc.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextOperatorID, operatorID)
		c.Set(ContextRole, string(role))
		c.Next()
	}
}

// RequireRole rejects requests whose token carries none of the given
// roles. Managers pass every role check.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := auth.Role(c.GetString(ContextRole))
		if current == auth.RoleManager {
			c.Next()
			return
		}
		for _, r := range roles {
			if current == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}
