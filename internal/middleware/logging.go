// Package middleware provides HTTP middleware for the Foodgram Echo server.
// Middleware is applied globally (all routes) or per-route group depending
// on the middleware type. See internal/app/routes.go for registration.
package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
)

// RequestLogger returns middleware that logs every HTTP request with
// structured fields: method, path, status, latency, and remote IP.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			latency := time.Since(start)
			req := c.Request()

			// A returned error has not been rendered yet; derive the status
			// the error handler is about to write.
			status := c.Response().Status
			if err != nil {
				status = errorStatus(err)
			}

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("latency", latency),
				slog.String("remote_ip", c.RealIP()),
			}

			if id := GetRequestID(c); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			slog.LogAttrs(req.Context(), level, "request", attrs...)

			return err
		}
	}
}

// errorStatus maps a handler error to the status code it will be rendered with.
func errorStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return apperror.SafeCode(err)
}
