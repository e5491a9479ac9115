package tags

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/validation"
)

// Handler handles HTTP requests for tag operations. Handlers are thin: bind
// request, call service, render response.
type Handler struct {
	service   TagService
	validator *validation.Validator
}

// NewHandler creates a new tag handler backed by the given service.
func NewHandler(service TagService, v *validation.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

// ListTags returns all tags (GET /api/tags). Not paginated.
func (h *Handler) ListTags(c echo.Context) error {
	tags, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

// GetTag returns one tag (GET /api/tags/:id).
func (h *Handler) GetTag(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return apperror.NewNotFound("Not found.")
	}

	tag, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

// CreateTag creates a tag (POST /api/tags). Admin only.
func (h *Handler) CreateTag(c echo.Context) error {
	var req CreateTagRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("JSON parse error.")
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	tag, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tag)
}
