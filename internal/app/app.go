// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance) and wires together all plugins and widgets.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
	"github.com/foodgram/foodgram/internal/middleware"
	"github.com/foodgram/foodgram/internal/ratelimit"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Redis is the Redis client holding API tokens.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// authLimiter throttles login and registration per client IP.
	authLimiter *ratelimit.KeyedRateLimiter
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. The auth rate limiter keys on it.
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	app := &App{
		Config:      cfg,
		DB:          db,
		Redis:       rdb,
		Echo:        e,
		authLimiter: ratelimit.New(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst, 10*time.Minute),
	}

	app.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: the first registered runs outermost.
func (a *App) setupMiddleware() {
	// Clients address collections as "/api/recipes/"; routes are registered
	// without the slash.
	a.Echo.Pre(echomw.RemoveTrailingSlash())

	// Request ID first so recovery and request logs carry it.
	a.Echo.Use(middleware.RequestID())

	// Panic recovery -- wraps everything below it.
	a.Echo.Use(middleware.Recovery())

	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.Metrics())

	a.Echo.Use(middleware.SecurityHeaders(!a.Config.IsDevelopment()))

	// CORS -- the SPA frontend runs on its own origin.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: a.Config.CORSOrigins,
	}))

	// Recipe images arrive base64-encoded inside JSON, about 4/3 of the
	// decoded size; allow that plus room for the rest of the body.
	limitKB := a.Config.Upload.MaxSize*4/3/1024 + 1024
	a.Echo.Use(echomw.BodyLimit(fmt.Sprintf("%dK", limitKB)))
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) and Echo's own errors to the JSON payloads API clients expect:
//
//	field validation  -> {"field": ["message", ...]}
//	relation conflict -> {"errors": "message"}
//	everything else   -> {"detail": "message"}
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code, body := errorResponse(err, c.Request().URL.Path)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

// errorResponse returns the status and JSON body for err.
func errorResponse(err error, path string) (int, any) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.Any("internal", appErr.Internal),
				slog.String("path", path),
			)
		}

		switch {
		case len(appErr.Fields) > 0:
			return appErr.Code, appErr.Fields
		case appErr.Type == apperror.TypeConflict:
			return appErr.Code, map[string]string{"errors": appErr.Message}
		default:
			return appErr.Code, map[string]string{"detail": appErr.Message}
		}
	}

	// Echo's built-in HTTP errors (404 from router, 413 from body limit).
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		message, ok := echoErr.Message.(string)
		if !ok || echoErr.Code == http.StatusNotFound || echoErr.Code == http.StatusMethodNotAllowed {
			message = defaultErrorMessage(echoErr.Code)
		}
		return echoErr.Code, map[string]string{"detail": message}
	}

	// Truly unexpected error -- log it.
	slog.Error("unhandled error", slog.Any("error", err), slog.String("path", path))
	return http.StatusInternalServerError, map[string]string{"detail": defaultErrorMessage(http.StatusInternalServerError)}
}

// defaultErrorMessage returns a message for common HTTP status codes when
// the error carried none.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Malformed request."
	case http.StatusUnauthorized:
		return "Authentication credentials were not provided."
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "Not found."
	case http.StatusMethodNotAllowed:
		return "Method not allowed."
	case http.StatusRequestEntityTooLarge:
		return "Request body too large."
	case http.StatusTooManyRequests:
		return "Request was throttled. Please try again later."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Foodgram server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// Shutdown drains in-flight requests and stops background workers.
func (a *App) Shutdown(ctx context.Context) error {
	a.authLimiter.Stop()
	return a.Echo.Shutdown(ctx)
}
