package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the session cookie. HttpOnly and SameSite=Lax: the token is
// never readable from script and cross-site form posts do not carry it.
const CookieName = "clinic_session"

// publicPaths lists URL paths that bypass authentication: the login form,
// the liveness probe, and the metrics endpoint.
var publicPaths = map[string]bool{
	"/":        true,
	"/login":   true,
	"/health":  true,
	"/metrics": true,
}

// Skipper returns true for requests whose path should skip authentication.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// Manager issues and validates session cookies.
type Manager struct {
	secret string
	ttl    time.Duration
	secure bool
}

// NewManager creates a session manager. secure controls the cookie Secure
// flag and should be true whenever the server is reached over HTTPS.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{secret: secret, ttl: ttl, secure: secure}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue mints a token for the principal and sets the session cookie.
func (m *Manager) Issue(c echo.Context, p Principal) error {
	tok, err := Mint(p, m.secret, m.ttl)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware authenticates the session cookie and stores the principal on the
// request context. Unauthenticated access to a protected route redirects to
// the login page.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err == nil && cookie.Value != "" {
				if p, verr := Verify(cookie.Value, m.secret); verr == nil {
					ctx := WithPrincipal(c.Request().Context(), p)
					c.SetRequest(c.Request().WithContext(ctx))
					return next(c)
				}
				// stale or tampered cookie
				m.Clear(c)
			}

			if Skipper(c) {
				return next(c)
			}
			return c.Redirect(http.StatusFound, "/login")
		}
	}
}

// RequireRole guards a route group: principals lacking every listed role are
// sent back to the dashboard with a notice instead of seeing the page.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := FromContext(c.Request().Context())
			if !ok {
				return c.Redirect(http.StatusFound, "/login")
			}
			for _, required := range roles {
				if p.Role == required {
					return next(c)
				}
			}
			Flash(c, "not authorized")
			return c.Redirect(http.StatusFound, "/dashboard")
		}
	}
}
