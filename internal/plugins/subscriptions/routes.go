package subscriptions

import (
	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/plugins/auth"
)

// RegisterRoutes sets up subscription routes. All of them require a token.
func RegisterRoutes(api *echo.Group, h *Handler) {
	requireAuth := auth.RequireAuth()

	api.GET("/users/subscriptions", h.ListSubscriptions, requireAuth)
	api.POST("/users/:id/subscribe", h.Subscribe, requireAuth)
	api.DELETE("/users/:id/subscribe", h.Unsubscribe, requireAuth)
}
