package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"carservice/internal/backend"
	apperrors "carservice/internal/errors"
	"carservice/internal/guard"
	"carservice/internal/model"
	"carservice/internal/pagination"
	"carservice/internal/render"
	"carservice/internal/service"
)

// API is the backend surface the dashboard pages use.
type API interface {
	List(ctx context.Context, token string, spec backend.ListSpec, req pagination.PageRequest) (pagination.PageResult[model.Record], error)
	Get(ctx context.Context, token, path, action string) (model.Record, error)
	Create(ctx context.Context, token, path, action string, payload any) (string, error)
	Update(ctx context.Context, token, path, action string, payload any) (string, error)
	Delete(ctx context.Context, token, path, action string) (string, error)
	Options(ctx context.Context, token, path, valueKey, labelKey string) ([]model.Option, error)
	Stats(ctx context.Context, token, path string) (model.DashboardStats, error)
	Profile(ctx context.Context, token string) (model.Profile, error)
	UpdateProfile(ctx context.Context, token string, payload map[string]string) (string, error)
	Search(ctx context.Context, token, path string, req pagination.PageRequest) (backend.SearchResult, error)
}

var _ API = (*backend.Client)(nil)

// base holds what every page handler shares.
type base struct {
	api        API
	auth       service.AuthService
	cookieName string
	logger     *slog.Logger
}

func newBase(api API, auth service.AuthService, cookieName string, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{api: api, auth: auth, cookieName: cookieName, logger: logger}
}

// render fills the per-request parts of p and executes the named page.
func (b *base) render(c echo.Context, status int, name string, p render.Page) error {
	p.Session = guard.FromContext(c)
	if tok, ok := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string); ok {
		p.CSRF = tok
	}
	if p.Notice == "" {
		p.Notice = c.QueryParam("notice")
	}
	return c.Render(status, name, p)
}

// expired drops the session after the backend answered 401 and sends the visitor to login.
// The request is not retried.
func (b *base) expired(c echo.Context) error {
	if cookie, err := c.Cookie(b.cookieName); err == nil {
		if err := b.auth.Drop(c.Request().Context(), cookie.Value); err != nil {
			b.logger.Warn("drop expired session", "error", err)
		}
	}
	guard.ClearCookie(c, b.cookieName)
	return c.Redirect(http.StatusSeeOther, guard.LoginPath)
}

// token returns the bearer token of the guarded request.
func token(c echo.Context) string {
	if sess := guard.FromContext(c); sess != nil {
		return sess.Token
	}
	return ""
}

func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func withNotice(path, notice string) string {
	if notice == "" {
		return path
	}
	return path + "?notice=" + url.QueryEscape(notice)
}

// statusFor picks the response code for a page rendered after err.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return apperrors.ToHTTP(err)
}
