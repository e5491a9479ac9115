package ingredients

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/validation"
)

// Handler serves the ingredient catalog.
type Handler struct {
	service   IngredientService
	validator *validation.Validator
}

func NewHandler(service IngredientService, v *validation.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

// ListIngredients returns the catalog filtered by ?name= prefix
// (GET /api/ingredients). Not paginated.
func (h *Handler) ListIngredients(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// GetIngredient returns one ingredient (GET /api/ingredients/:id).
func (h *Handler) GetIngredient(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return apperror.NewNotFound("Not found.")
	}

	ing, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ing)
}

// CreateIngredient adds a catalog entry (POST /api/ingredients). Admin only.
func (h *Handler) CreateIngredient(c echo.Context) error {
	var req CreateIngredientRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("JSON parse error.")
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	ing, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ing)
}
