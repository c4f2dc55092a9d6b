package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aura-webinar/storefront/pkg/response"
)

// Limiter counts calls per key within a window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) bool
}

// RateLimit caps requests per client IP for one route group.
func RateLimit(l Limiter, name string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		if !l.Allow(c.Request.Context(), name+":"+c.ClientIP(), limit, window) {
			response.TooManyRequests(c, "too many requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
