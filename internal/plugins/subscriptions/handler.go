package subscriptions

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
	"github.com/foodgram/foodgram/internal/pagination"
	"github.com/foodgram/foodgram/internal/plugins/auth"
)

// Handler serves the subscription endpoints.
type Handler struct {
	service SubscriptionService
	pageCfg config.PaginationConfig
	baseURL string
}

func NewHandler(service SubscriptionService, pageCfg config.PaginationConfig, baseURL string) *Handler {
	return &Handler{service: service, pageCfg: pageCfg, baseURL: baseURL}
}

// ListSubscriptions returns a page of followed authors
// (GET /api/users/subscriptions?recipes_limit=N).
func (h *Handler) ListSubscriptions(c echo.Context) error {
	opts, err := pagination.FromQuery(c.QueryParams(), h.pageCfg)
	if err != nil {
		return err
	}
	limit, err := recipesLimit(c)
	if err != nil {
		return err
	}

	authors, total, err := h.service.List(c.Request().Context(), auth.GetUserID(c), opts, limit)
	if err != nil {
		return err
	}

	page, err := pagination.NewPage(authors, total, opts, pagination.AbsoluteURL(h.baseURL, c.Request()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Subscribe follows an author (POST /api/users/:id/subscribe).
func (h *Handler) Subscribe(c echo.Context) error {
	authorID, err := userID(c)
	if err != nil {
		return err
	}
	limit, err := recipesLimit(c)
	if err != nil {
		return err
	}

	author, err := h.service.Subscribe(c.Request().Context(), auth.GetUserID(c), authorID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, author)
}

// Unsubscribe stops following an author (DELETE /api/users/:id/subscribe).
func (h *Handler) Unsubscribe(c echo.Context) error {
	authorID, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.service.Unsubscribe(c.Request().Context(), auth.GetUserID(c), authorID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func userID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewNotFound("Not found.")
	}
	return id, nil
}

// recipesLimit reads ?recipes_limit. Absent means no cap.
func recipesLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("recipes_limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.NewFieldError("recipes_limit", "A valid non-negative integer is required.")
	}
	return n, nil
}
