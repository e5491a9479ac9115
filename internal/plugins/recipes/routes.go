package recipes

import (
	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/plugins/auth"
)

// RegisterRoutes sets up recipe routes on the /api group. Reads are open to
// anonymous viewers; every write requires a token.
func RegisterRoutes(api *echo.Group, h *Handler) {
	requireAuth := auth.RequireAuth()

	api.GET("/recipes", h.ListRecipes)
	api.POST("/recipes", h.CreateRecipe, requireAuth)
	api.GET("/recipes/download_shopping_cart", h.DownloadShoppingCart, requireAuth)
	api.GET("/recipes/:id", h.GetRecipe)
	api.PATCH("/recipes/:id", h.UpdateRecipe, requireAuth)
	api.DELETE("/recipes/:id", h.DeleteRecipe, requireAuth)

	api.POST("/recipes/:id/favorite", h.AddFavorite, requireAuth)
	api.DELETE("/recipes/:id/favorite", h.RemoveFavorite, requireAuth)
	api.POST("/recipes/:id/shopping_cart", h.AddToShoppingCart, requireAuth)
	api.DELETE("/recipes/:id/shopping_cart", h.RemoveFromShoppingCart, requireAuth)
}
