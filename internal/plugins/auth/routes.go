package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up account and token routes on the /api group, which
// already runs Authenticate. Login and registration are wrapped in the
// per-IP limiter passed as throttle.
//
// /api/users/me and /api/users/set_password are registered before
// /api/users/:id; Echo prefers static segments regardless, but the order
// documents the intent.
func RegisterRoutes(api *echo.Group, h *Handler, throttle echo.MiddlewareFunc) {
	api.POST("/auth/token/login", h.Login, throttle)
	api.POST("/auth/token/logout", h.Logout, RequireAuth())

	api.POST("/users", h.Register, throttle)
	api.GET("/users", h.ListUsers)
	api.GET("/users/me", h.Me, RequireAuth())
	api.POST("/users/set_password", h.SetPassword, RequireAuth())
	api.GET("/users/:id", h.GetUser)
}
