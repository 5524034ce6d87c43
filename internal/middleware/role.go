package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"villastay/internal/pkg/response"
)

const RoleAdmin = "admin"

// RequireRole lets the request through when the token role is one of roles.
// It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		switch {
		case role == "":
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
		case !slices.Contains(roles, role):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		default:
			c.Next()
			return
		}
		c.Abort()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}
