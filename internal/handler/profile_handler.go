package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "carservice/internal/errors"
	"carservice/internal/render"
	"carservice/internal/service"
)

// ProfileHandler shows and updates the caller's own account.
type ProfileHandler struct {
	base
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(api API, authService service.AuthService, cookieName string, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{base: newBase(api, authService, cookieName, logger)}
}

// ProfileRequest represents the profile form. A blank password keeps the current one.
type ProfileRequest struct {
	Username string `form:"username" validate:"required"`
	Email    string `form:"email" validate:"required,email_simple"`
	Password string `form:"password" validate:"omitempty,password"`
}

// Profile renders the caller's profile.
func (h *ProfileHandler) Profile(c echo.Context) error {
	p, err := h.api.Profile(c.Request().Context(), token(c))
	if err != nil {
		if apperrors.IsAuthExpired(err) {
			return h.expired(c)
		}
		return h.render(c, statusFor(err), "profile.html", render.Page{Title: "Profile", Error: apperrors.UserMessage(err), Data: p})
	}
	return h.render(c, http.StatusOK, "profile.html", render.Page{Title: "Profile", Data: p})
}

// EditProfile renders the profile form prefilled from the backend.
func (h *ProfileHandler) EditProfile(c echo.Context) error {
	p, err := h.api.Profile(c.Request().Context(), token(c))
	if err != nil {
		if apperrors.IsAuthExpired(err) {
			return h.expired(c)
		}
		return h.render(c, statusFor(err), "profile_form.html", render.Page{Title: "Update profile", Error: apperrors.UserMessage(err), Data: ProfileRequest{}})
	}
	req := ProfileRequest{Username: p.Username, Email: p.Email}
	return h.render(c, http.StatusOK, "profile_form.html", render.Page{Title: "Update profile", Data: req})
}

// UpdateProfile validates the form, then puts it.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return h.profileFailed(c, req, err)
	}

	payload := map[string]string{"username": req.Username, "email": req.Email}
	if req.Password != "" {
		payload["password"] = req.Password
	}
	msg, err := h.api.UpdateProfile(c.Request().Context(), token(c), payload)
	if err != nil {
		if apperrors.IsAuthExpired(err) {
			return h.expired(c)
		}
		return h.profileFailed(c, req, err)
	}
	return c.Redirect(http.StatusSeeOther, withNotice("/user/profile", msg))
}

func (h *ProfileHandler) profileFailed(c echo.Context, req ProfileRequest, err error) error {
	req.Password = ""
	return h.render(c, statusFor(err), "profile_form.html", render.Page{Title: "Update profile", Error: apperrors.UserMessage(err), Data: req})
}
