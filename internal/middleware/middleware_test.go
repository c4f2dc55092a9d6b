package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.NoRoute(func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if ok {
			c.String(http.StatusOK, id.Role)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return r
}

func do(r http.Handler, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, svc *auth.JWTService, role string) string {
	t.Helper()
	tok, err := svc.Generate(uuid.New(), "u@example.com", role)
	require.NoError(t, err)
	return tok
}

func TestJWT_HeaderAndCookie(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := newRouter(JWT(svc))
	tok := token(t, svc, "user")

	w := do(r, "/x", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/x", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user", w.Body.String())

	w = do(r, "/x", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok}) })
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "/x", func(req *http.Request) { req.Header.Set("Authorization", "Bearer garbage") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalJWT_AnonymousPassesThrough(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := newRouter(OptionalJWT(svc))

	w := do(r, "/x", nil)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(r, "/x", func(req *http.Request) { req.Header.Set("Authorization", "Bearer garbage") })
	assert.Equal(t, "anonymous", w.Body.String())

	tok := token(t, svc, "admin")
	w = do(r, "/x", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) })
	assert.Equal(t, "admin", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := newRouter(JWT(svc), RequireRole("admin"))

	w := do(r, "/x", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token(t, svc, "user")) })
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, "/x", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token(t, svc, "admin")) })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionGate(t *testing.T) {
	svc := auth.NewJWTService("secret", 1)
	r := newRouter(SessionGate(svc, DefaultGateRules()))
	userTok := token(t, svc, "user")
	adminTok := token(t, svc, "admin")
	withCookie := func(tok string) func(*http.Request) {
		return func(req *http.Request) { req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tok}) }
	}

	tests := []struct {
		name     string
		path     string
		setup    func(*http.Request)
		code     int
		location string
	}{
		{"anonymous dashboard", "/dashboard/orders", nil, http.StatusFound, "/login?redirect=%2Fdashboard%2Forders"},
		{"anonymous admin", "/admin", nil, http.StatusFound, "/login?redirect=%2Fadmin"},
		{"user admin", "/admin/coupons", withCookie(userTok), http.StatusFound, "/dashboard"},
		{"admin admin", "/admin/coupons", withCookie(adminTok), http.StatusOK, ""},
		{"user login page", "/login", withCookie(userTok), http.StatusFound, "/dashboard"},
		{"anonymous signup", "/signup", nil, http.StatusOK, ""},
		{"user dashboard", "/dashboard", withCookie(userTok), http.StatusOK, ""},
		{"prefix lookalike", "/administrators", nil, http.StatusOK, ""},
		{"public page", "/webinars", nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.path, tt.setup)
			assert.Equal(t, tt.code, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
		})
	}
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS("http://localhost:3000"))

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Content-Disposition", w.Header().Get("Access-Control-Expose-Headers"))

	w = do(r, "/x", func(req *http.Request) { req.Header.Set("Origin", "http://evil.test") })
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type countingLimiter struct{ calls map[string]int64 }

func (l *countingLimiter) Allow(_ context.Context, key string, limit int64, _ time.Duration) bool {
	l.calls[key]++
	return l.calls[key] <= limit
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(&countingLimiter{calls: map[string]int64{}}, "contact", 2, time.Minute))

	assert.Equal(t, http.StatusOK, do(r, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, "/x", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/x", nil).Code)
}
