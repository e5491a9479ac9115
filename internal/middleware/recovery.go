package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// Recovery returns middleware that recovers from panics, logs the stack
// trace, and returns a 500 JSON error to the client. This prevents a single
// panicking handler from crashing the entire server.
func Recovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}

					slog.Error("panic recovered",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", c.Request().Method),
						slog.String("path", c.Request().URL.Path),
						slog.String("request_id", GetRequestID(c)),
					)

					if c.Response().Committed {
						return
					}
					returnErr = c.JSON(http.StatusInternalServerError, map[string]string{
						"detail": "An unexpected error occurred. Please try again.",
					})
				}
			}()

			return next(c)
		}
	}
}
