package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/metrics"
)

// Metrics returns middleware that records request count and latency per
// route. The route template (c.Path(), e.g. "/api/recipes/:id") is used as
// the label so recipe ids do not explode label cardinality.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			metrics.TrackActiveRequest(true)
			defer metrics.TrackActiveRequest(false)

			start := time.Now()
			err := next(c)

			// Errors are rendered by the HTTP error handler after this
			// middleware returns, so take the status from the error.
			status := c.Response().Status
			if err != nil {
				status = errorStatus(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordAPIRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
