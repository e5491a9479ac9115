package recipes

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
	"github.com/foodgram/foodgram/internal/pagination"
	"github.com/foodgram/foodgram/internal/plugins/auth"
	"github.com/foodgram/foodgram/internal/validation"
	"github.com/foodgram/foodgram/internal/widgets/relations"
)

// Handler handles HTTP requests for recipes, the favorite and shopping cart
// toggles, and the shopping list download. Handlers are thin: bind request,
// call service, render response.
type Handler struct {
	service   RecipeService
	lists     ShoppingListService
	validator *validation.Validator
	pageCfg   config.PaginationConfig
	baseURL   string
}

// NewHandler creates a new recipe handler.
func NewHandler(service RecipeService, lists ShoppingListService, v *validation.Validator, pageCfg config.PaginationConfig, baseURL string) *Handler {
	return &Handler{service: service, lists: lists, validator: v, pageCfg: pageCfg, baseURL: baseURL}
}

// ListRecipes returns a page of recipes (GET /api/recipes). Supports
// ?tags=<slug> (repeatable), ?author=<id>, ?is_favorited=1 and
// ?is_in_shopping_cart=1.
func (h *Handler) ListRecipes(c echo.Context) error {
	opts, err := pagination.FromQuery(c.QueryParams(), h.pageCfg)
	if err != nil {
		return err
	}

	viewerID := auth.GetUserID(c)
	filter, err := parseFilter(c, viewerID)
	if err != nil {
		return err
	}

	views, total, err := h.service.List(c.Request().Context(), viewerID, filter, opts)
	if err != nil {
		return err
	}

	page, err := pagination.NewPage(views, total, opts, pagination.AbsoluteURL(h.baseURL, c.Request()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GetRecipe returns one recipe (GET /api/recipes/:id).
func (h *Handler) GetRecipe(c echo.Context) error {
	id, err := recipeID(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// CreateRecipe publishes a recipe (POST /api/recipes).
func (h *Handler) CreateRecipe(c echo.Context) error {
	req, err := h.bindRecipe(c)
	if err != nil {
		return err
	}
	view, err := h.service.Create(c.Request().Context(), actor(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// UpdateRecipe rewrites a recipe (PATCH /api/recipes/:id). Author or admin.
func (h *Handler) UpdateRecipe(c echo.Context) error {
	id, err := recipeID(c)
	if err != nil {
		return err
	}
	req, err := h.bindRecipe(c)
	if err != nil {
		return err
	}
	view, err := h.service.Update(c.Request().Context(), actor(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteRecipe removes a recipe (DELETE /api/recipes/:id). Author or admin.
func (h *Handler) DeleteRecipe(c echo.Context) error {
	id, err := recipeID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddFavorite and the three handlers below toggle relations on a recipe.
func (h *Handler) AddFavorite(c echo.Context) error {
	return h.addRelation(c, relations.Favorite)
}

func (h *Handler) RemoveFavorite(c echo.Context) error {
	return h.removeRelation(c, relations.Favorite)
}

func (h *Handler) AddToShoppingCart(c echo.Context) error {
	return h.addRelation(c, relations.ShoppingCart)
}

func (h *Handler) RemoveFromShoppingCart(c echo.Context) error {
	return h.removeRelation(c, relations.ShoppingCart)
}

// DownloadShoppingCart streams the aggregated shopping list as a text
// attachment (GET /api/recipes/download_shopping_cart).
func (h *Handler) DownloadShoppingCart(c echo.Context) error {
	list, err := h.lists.Build(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": list.Filename})
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", list.Content)
}

func (h *Handler) addRelation(c echo.Context, kind relations.Kind) error {
	id, err := recipeID(c)
	if err != nil {
		return err
	}
	summary, err := h.service.AddRelation(c.Request().Context(), kind, auth.GetUserID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, summary)
}

func (h *Handler) removeRelation(c echo.Context, kind relations.Kind) error {
	id, err := recipeID(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveRelation(c.Request().Context(), kind, auth.GetUserID(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) bindRecipe(c echo.Context) (RecipeRequest, error) {
	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		return req, apperror.NewBadRequest("JSON parse error.")
	}
	if err := h.validator.Validate(req); err != nil {
		return req, err
	}
	return req, nil
}

func recipeID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewNotFound("Not found.")
	}
	return id, nil
}

func actor(c echo.Context) Actor {
	return Actor{UserID: auth.GetUserID(c), IsAdmin: auth.IsAdmin(c)}
}

// parseFilter reads list filters from the query string. The viewer filters
// only take effect for an authenticated viewer.
func parseFilter(c echo.Context, viewerID int64) (ListFilter, error) {
	var filter ListFilter
	for _, slug := range c.QueryParams()["tags"] {
		if slug != "" {
			filter.TagSlugs = append(filter.TagSlugs, slug)
		}
	}

	if raw := c.QueryParam("author"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return filter, apperror.NewFieldError("author", "Select a valid choice. That choice is not one of the available choices.")
		}
		filter.AuthorID = id
	}

	if viewerID != 0 {
		if truthy(c.QueryParam("is_favorited")) {
			filter.FavoritedBy = viewerID
		}
		if truthy(c.QueryParam("is_in_shopping_cart")) {
			filter.InCartOf = viewerID
		}
	}
	return filter, nil
}

func truthy(v string) bool {
	switch v {
	case "1", "true", "True":
		return true
	}
	return false
}
