package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/metrics"
	"github.com/foodgram/foodgram/internal/ratelimit"
)

// RateLimit returns middleware that limits requests per client IP using the
// given keyed token-bucket limiter. Applied to login and registration.
// Returns 429 when the bucket for the caller's IP is empty.
func RateLimit(limiter *ratelimit.KeyedRateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow(c.RealIP()) {
				metrics.RecordRateLimited(c.Path())
				c.Response().Header().Set("Retry-After", "5")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"detail": "Request was throttled. Please try again later.",
				})
			}
			return next(c)
		}
	}
}
