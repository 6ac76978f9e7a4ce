package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
)

// Decision is the outcome of a guard check.
type Decision int

const (
	// Render lets the protected view render.
	Render Decision = iota
	// RedirectLogin sends the visitor to the login screen.
	RedirectLogin
	// RedirectHome sends the visitor to the landing route.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Decide is the pure guard rule. An unauthenticated caller always goes to login.
// An empty requiredRole means any authenticated caller may render; a requiredRole
// that is not a known role never renders.
func Decide(authenticated bool, role, requiredRole string) Decision {
	if !authenticated {
		return RedirectLogin
	}
	if requiredRole == "" {
		return Render
	}
	if !model.KnownRole(requiredRole) {
		return RedirectHome
	}
	if role == requiredRole {
		return Render
	}
	return RedirectHome
}

const (
	// LoginPath is where RedirectLogin points.
	LoginPath = "/login"
	// HomePath is where RedirectHome points.
	HomePath = "/"
)

const sessionContextKey = "session"

// SessionSource is what the session middleware needs from the auth service.
type SessionSource interface {
	Resume(ctx context.Context, id string) (*model.Session, error)
}

// LoadSession resolves the session cookie once per request and stores the result in
// the echo context. Failures leave the request anonymous; they never abort it.
func LoadSession(src SessionSource, cookieName string, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			sess, err := src.Resume(c.Request().Context(), cookie.Value)
			switch {
			case err == nil:
				c.Set(sessionContextKey, sess)
			case errors.Is(err, apperrors.ErrSessionMissing), apperrors.IsAuthExpired(err):
				ClearCookie(c, cookieName)
			default:
				logger.Warn("session lookup failed", "error", err)
			}
			return next(c)
		}
	}
}

// FromContext returns the session LoadSession attached, or nil.
func FromContext(c echo.Context) *model.Session {
	sess, _ := c.Get(sessionContextKey).(*model.Session)
	return sess
}

// Require guards a route group. It only reads the session LoadSession attached.
func Require(requiredRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := FromContext(c)
			authenticated := sess != nil && sess.Token != ""
			role := ""
			if sess != nil {
				role = sess.Role
			}
			switch Decide(authenticated, role, requiredRole) {
			case Render:
				return next(c)
			case RedirectLogin:
				return c.Redirect(http.StatusSeeOther, LoginPath)
			default:
				return c.Redirect(http.StatusSeeOther, HomePath)
			}
		}
	}
}

// SetCookie writes the session cookie.
func SetCookie(c echo.Context, name, value string, maxAge int, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HomeFor returns the landing route for role.
func HomeFor(role string) string {
	switch role {
	case model.RoleAdmin:
		return "/admin"
	case model.RoleUser:
		return "/user"
	default:
		return LoginPath
	}
}
