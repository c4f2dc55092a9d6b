package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/response"
)

// RequireRole lets through callers holding one of roles. Mount it after JWT.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		switch {
		case !ok:
			response.Unauthorized(c, "missing user context")
		case !allowed[id.Role]:
			response.Forbidden(c, "admin access required")
		default:
			c.Next()
			return
		}
		c.Abort()
	}
}
