package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/storefront/internal/auth"
	"github.com/aura-webinar/storefront/pkg/response"
)

const (
	// ContextIdentity is the key for the caller identity in gin context.
	ContextIdentity = auth.ContextIdentity
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"
)

// TokenValidator validates session tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWT returns a middleware that requires a valid session token and sets the
// caller identity in context.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := tokenFrom(c)
		if !ok {
			response.Unauthorized(c, "missing authorization")
			c.Abort()
			return
		}
		claims, err := tokens.Validate(raw)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextIdentity, claims.Identity())
		c.Next()
	}
}

// OptionalJWT sets the caller identity when a valid token is present and
// lets anonymous requests through.
func OptionalJWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := tokenFrom(c); ok {
			if claims, err := tokens.Validate(raw); err == nil {
				c.Set(ContextIdentity, claims.Identity())
			}
		}
		c.Next()
	}
}

// IdentityFrom returns the caller identity, if the request is authenticated.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	return auth.FromContext(c)
}

// MustIdentity returns the identity set by JWT. It aborts with 401 when the
// route was mounted without the middleware.
func MustIdentity(c *gin.Context) (auth.Identity, bool) {
	id, ok := IdentityFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		c.Abort()
	}
	return id, ok
}

func tokenFrom(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}
