package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"carservice/internal/config"
	apperrors "carservice/internal/errors"
	"carservice/internal/guard"
	"carservice/internal/handler"
	ratelimit "carservice/internal/middleware"
	"carservice/internal/model"
	"carservice/internal/render"
	"carservice/internal/resource"
	"carservice/internal/validation"
)

// Register wires routes and middleware.
func Register(
	ctx context.Context,
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	registry *resource.Registry,
	sessions guard.SessionSource,
	authHandler *handler.AuthHandler,
	dashboardHandler *handler.DashboardHandler,
	resourceHandler *handler.ResourceHandler,
	searchHandler *handler.SearchHandler,
	profileHandler *handler.ProfileHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
	}))
	e.Use(guard.LoadSession(sessions, cfg.SessionCookie, logger))

	e.Validator = &CustomValidator{validator: validation.New()}
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Public routes
	e.GET("/", authHandler.Home)
	e.GET("/login", authHandler.LoginPage)
	e.POST("/login", authHandler.Login, ratelimit.RateLimit(ctx, cfg.LoginRateRPS, cfg.LoginRateBurst))
	e.POST("/logout", authHandler.Logout)

	for _, scope := range []string{model.RoleAdmin, model.RoleUser} {
		g := e.Group("/"+scope, guard.Require(scope))
		g.GET("", dashboardHandler.Show(scope))
		g.GET("/search", searchHandler.Show(scope))

		for _, s := range registry.Scope(scope) {
			base := "/" + s.Name
			g.GET(base, resourceHandler.List(s))
			if !s.ReadOnly {
				g.GET(base+"/new", resourceHandler.New(s))
				g.POST(base+"/new", resourceHandler.Create(s))
				g.GET(base+"/:id/edit", resourceHandler.Edit(s))
				g.POST(base+"/:id/edit", resourceHandler.Update(s))
			}
			g.GET(base+"/:id/delete", resourceHandler.ConfirmDelete(s))
			g.POST(base+"/:id/delete", resourceHandler.Delete(s))
		}

		if scope == model.RoleUser {
			g.GET("/profile", profileHandler.Profile)
			g.GET("/profile/edit", profileHandler.EditProfile)
			g.POST("/profile/edit", profileHandler.UpdateProfile)
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Error("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}

// ErrorHandler renders uncaught errors with the error page.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := apperrors.ToHTTP(err)
		msg := apperrors.UserMessage(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error("unhandled error", "path", c.Request().URL.Path, "error", err)
			msg = http.StatusText(code)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		page := render.Page{Title: http.StatusText(code), Session: guard.FromContext(c), Error: msg}
		if tok, ok := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string); ok {
			page.CSRF = tok
		}
		if rerr := c.Render(code, "error.html", page); rerr != nil {
			logger.Error("render error page", "error", rerr)
			_ = c.String(code, msg)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface. Failures come back as one readable
// validation error.
func (cv *CustomValidator) Validate(i interface{}) error {
	return validation.Humanize(cv.validator.Struct(i))
}
