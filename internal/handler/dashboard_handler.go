package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "carservice/internal/errors"
	"carservice/internal/model"
	"carservice/internal/render"
	"carservice/internal/resource"
	"carservice/internal/service"
)

var statsPaths = map[string]string{
	model.RoleAdmin: "/admin/dashboard_home",
	model.RoleUser:  "/user/dashboard_home_user",
}

// DashboardHandler renders the per-role landing page with counters.
type DashboardHandler struct {
	base
	registry *resource.Registry
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(api API, authService service.AuthService, registry *resource.Registry, cookieName string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{base: newBase(api, authService, cookieName, logger), registry: registry}
}

// DashboardData is the dashboard template model.
type DashboardData struct {
	Scope    string
	Stats    model.DashboardStats
	Entities []*resource.Schema
}

// Show returns the dashboard handler for scope.
func (h *DashboardHandler) Show(scope string) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := h.api.Stats(c.Request().Context(), token(c), statsPaths[scope])
		if apperrors.IsAuthExpired(err) {
			return h.expired(c)
		}
		p := render.Page{
			Title: "Dashboard",
			Data:  DashboardData{Scope: scope, Stats: stats, Entities: h.registry.Scope(scope)},
		}
		if err != nil {
			p.Error = apperrors.UserMessage(err)
			return h.render(c, statusFor(err), "dashboard.html", p)
		}
		return h.render(c, http.StatusOK, "dashboard.html", p)
	}
}
