package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "carservice/internal/errors"
	"carservice/internal/guard"
	"carservice/internal/render"
	"carservice/internal/service"
)

// AuthHandler handles login, logout and the landing redirect.
type AuthHandler struct {
	base
	cookieSecure bool
	sessionTTL   time.Duration
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookieName string, cookieSecure bool, sessionTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		base:         newBase(nil, authService, cookieName, logger),
		cookieSecure: cookieSecure,
		sessionTTL:   sessionTTL,
	}
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Home sends the visitor to their role's dashboard, or to login.
func (h *AuthHandler) Home(c echo.Context) error {
	if sess := guard.FromContext(c); sess != nil {
		return c.Redirect(http.StatusSeeOther, guard.HomeFor(sess.Role))
	}
	return c.Redirect(http.StatusSeeOther, guard.LoginPath)
}

// LoginPage shows the login form. A logged-in visitor goes straight home.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	if sess := guard.FromContext(c); sess != nil {
		return c.Redirect(http.StatusSeeOther, guard.HomeFor(sess.Role))
	}
	return h.render(c, http.StatusOK, "login.html", render.Page{Title: "Log in", Data: LoginRequest{}})
}

// Login authenticates against the backend, stores the session and redirects by role.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return h.loginFailed(c, req, http.StatusUnprocessableEntity, "Username and password are required.")
	}

	sess, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return h.loginFailed(c, req, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, apperrors.ErrInvalidRole):
			return h.loginFailed(c, req, http.StatusForbidden, "Invalid role")
		case apperrors.KindOf(err) != apperrors.KindUnknown:
			return h.loginFailed(c, req, apperrors.ToHTTP(err), apperrors.UserMessage(err))
		default:
			h.logger.Error("login failed", "username", req.Username, "error", err)
			return h.loginFailed(c, req, http.StatusInternalServerError, "failed to log in")
		}
	}

	guard.SetCookie(c, h.cookieName, sess.ID.String(), int(h.sessionTTL.Seconds()), h.cookieSecure)
	return c.Redirect(http.StatusSeeOther, guard.HomeFor(sess.Role))
}

func (h *AuthHandler) loginFailed(c echo.Context, req LoginRequest, status int, msg string) error {
	req.Password = ""
	return h.render(c, status, "login.html", render.Page{Title: "Log in", Error: msg, Data: req})
}

// Logout ends the session on the backend (best effort) and locally.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(h.cookieName); err == nil {
		if err := h.auth.Logout(c.Request().Context(), cookie.Value); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}
	guard.ClearCookie(c, h.cookieName)
	return c.Redirect(http.StatusSeeOther, guard.LoginPath)
}
