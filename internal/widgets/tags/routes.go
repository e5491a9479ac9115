package tags

import (
	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/plugins/auth"
)

// RegisterRoutes sets up tag routes. Reading is public; creating requires
// an admin.
func RegisterRoutes(api *echo.Group, h *Handler) {
	api.GET("/tags", h.ListTags)
	api.GET("/tags/:id", h.GetTag)
	api.POST("/tags", h.CreateTag, auth.RequireAdmin())
}
