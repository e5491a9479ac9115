package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the Echo context key holding the request id.
const requestIDKey = "request_id"

// RequestID assigns every request an id, reusing one supplied by an upstream
// proxy when present. The id is echoed in the response header and picked up
// by RequestLogger.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			c.Set(requestIDKey, id)
			c.Response().Header().Set(RequestIDHeader, id)
			return next(c)
		}
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}
