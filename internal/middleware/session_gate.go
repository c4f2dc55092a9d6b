package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// GateRules lists route prefixes by access policy.
type GateRules struct {
	Protected []string // signed-in users only
	Admin     []string // admins only
	GuestOnly []string // anonymous users only
	LoginPath string
	HomePath  string
}

// DefaultGateRules is the storefront page policy.
func DefaultGateRules() GateRules {
	return GateRules{
		Protected: []string{"/dashboard"},
		Admin:     []string{"/admin"},
		GuestOnly: []string{"/login", "/signup"},
		LoginPath: "/login",
		HomePath:  "/dashboard",
	}
}

// SessionGate redirects page requests by session state. It refreshes the
// identity from the session on every request and never blocks API routes it
// has no rule for.
func SessionGate(tokens TokenValidator, rules GateRules) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		var signedIn, admin bool
		if raw, ok := tokenFrom(c); ok {
			if claims, err := tokens.Validate(raw); err == nil {
				id := claims.Identity()
				c.Set(ContextIdentity, id)
				signedIn, admin = true, id.IsAdmin()
			}
		}

		switch {
		case hasPrefix(path, rules.Admin):
			if !signedIn {
				redirectToLogin(c, rules.LoginPath, path)
				return
			}
			if !admin {
				c.Redirect(http.StatusFound, rules.HomePath)
				c.Abort()
				return
			}
		case hasPrefix(path, rules.Protected):
			if !signedIn {
				redirectToLogin(c, rules.LoginPath, path)
				return
			}
		case hasPrefix(path, rules.GuestOnly):
			if signedIn {
				c.Redirect(http.StatusFound, rules.HomePath)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func redirectToLogin(c *gin.Context, login, from string) {
	c.Redirect(http.StatusFound, login+"?redirect="+url.QueryEscape(from))
	c.Abort()
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
