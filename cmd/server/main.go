package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"carservice/internal/auth"
	"carservice/internal/backend"
	"carservice/internal/cache"
	"carservice/internal/config"
	"carservice/internal/db"
	"carservice/internal/handler"
	"carservice/internal/render"
	"carservice/internal/repository"
	"carservice/internal/resource"
	"carservice/internal/router"
	"carservice/internal/service"
)

const sweepInterval = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("config loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("session store init", "store", cfg.SessionStore, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	renderer, err := render.New()
	if err != nil {
		logger.Error("templates", "error", err)
		os.Exit(1)
	}

	api := backend.New(cfg.BackendURL, cfg.BackendTimeout, logger)
	registry := resource.Default()

	// Initialize services
	authService := service.NewAuthService(api, store, cfg.SessionTTL, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg.SessionCookie, cfg.CookieSecure, cfg.SessionTTL, logger)
	dashboardHandler := handler.NewDashboardHandler(api, authService, registry, cfg.SessionCookie, logger)
	resourceHandler := handler.NewResourceHandler(api, authService, cfg.PageSize, cfg.SessionCookie, logger)
	searchHandler := handler.NewSearchHandler(api, authService, registry, cfg.PageSize, cfg.SessionCookie, logger)
	profileHandler := handler.NewProfileHandler(api, authService, cfg.SessionCookie, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	router.Register(ctx, e, cfg, logger, registry, authService,
		authHandler,
		dashboardHandler,
		resourceHandler,
		searchHandler,
		profileHandler,
	)

	go func() {
		logger.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "backend", cfg.BackendURL)
		if err := e.Start(":" + cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// openStore connects the configured session store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.Store, func(), error) {
	switch cfg.SessionStore {
	case config.StoreMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		store := auth.NewSQLStore(repository.NewSessionRepository(gormDB))
		go sweep(ctx, store, logger)
		return store, func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	default:
		cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := cacheClient.Ping(ctx); err != nil {
			return nil, nil, err
		}
		return auth.NewRedisStore(cacheClient), func() { _ = cacheClient.Close() }, nil
	}
}

// sweep removes expired SQL sessions until ctx is done. Redis expires keys itself.
func sweep(ctx context.Context, store *auth.SQLStore, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Sweep(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
