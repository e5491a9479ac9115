package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests, e.g. the SPA's dev server "http://localhost:3000".
	// Use ["*"] to allow all.
	AllowedOrigins []string

	// AllowCredentials indicates whether the browser may send credentials.
	// Token auth travels in the Authorization header, so this is usually off.
	AllowCredentials bool
}

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// for the frontend, which is served from a different origin in development.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	// SECURITY: a wildcard origin with credentials lets any site make
	// authenticated requests.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS misconfiguration: wildcard origin with credentials is insecure; credentials disabled")
		cfg.AllowCredentials = false
	}

	allowMethods := strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")
	allowHeaders := strings.Join([]string{"Content-Type", "Authorization", RequestIDHeader}, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			// No Origin header means same-origin request -- skip CORS.
			if origin == "" {
				return next(c)
			}

			if !allowAll && !originSet[origin] {
				// The browser will block the response on the client side.
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Add("Vary", "Origin")

			if cfg.AllowCredentials {
				res.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Allow-Methods", allowMethods)
				res.Header().Set("Access-Control-Allow-Headers", allowHeaders)
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			// Let the SPA read the attachment name of the shopping list.
			res.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+RequestIDHeader)

			return next(c)
		}
	}
}
