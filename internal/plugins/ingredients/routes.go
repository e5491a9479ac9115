package ingredients

import (
	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/plugins/auth"
)

// RegisterRoutes sets up ingredient routes. Reading is public; creating
// requires an admin.
func RegisterRoutes(api *echo.Group, h *Handler) {
	api.GET("/ingredients", h.ListIngredients)
	api.GET("/ingredients/:id", h.GetIngredient)
	api.POST("/ingredients", h.CreateIngredient, auth.RequireAdmin())
}
