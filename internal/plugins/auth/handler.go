package auth

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
	"github.com/foodgram/foodgram/internal/pagination"
	"github.com/foodgram/foodgram/internal/sanitize"
	"github.com/foodgram/foodgram/internal/validation"
)

// Handler handles HTTP requests for accounts and tokens. Handlers are thin:
// they bind the request, call the service, and render the response.
type Handler struct {
	service   UserService
	validator *validation.Validator
	pageCfg   config.PaginationConfig
	baseURL   string
}

// NewHandler creates a new auth handler.
func NewHandler(service UserService, v *validation.Validator, pageCfg config.PaginationConfig, baseURL string) *Handler {
	return &Handler{service: service, validator: v, pageCfg: pageCfg, baseURL: baseURL}
}

// Register creates an account (POST /api/users).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("JSON parse error.")
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: sanitize.Text(req.FirstName),
		LastName:  sanitize.Text(req.LastName),
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for a token (POST /api/auth/token/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("JSON parse error.")
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	token, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, TokenResponse{AuthToken: token})
}

// Logout revokes the token used for this request (POST /api/auth/token/logout).
func (h *Handler) Logout(c echo.Context) error {
	token := getToken(c)
	if token == "" {
		return apperror.NewMissingContext()
	}
	if err := h.service.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the current user (GET /api/users/me).
func (h *Handler) Me(c echo.Context) error {
	userID := GetUserID(c)
	if userID == 0 {
		return apperror.NewMissingContext()
	}

	user, err := h.service.GetByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.ToProfile(false))
}

// GetUser returns one user profile (GET /api/users/:id).
func (h *Handler) GetUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return apperror.NewNotFound("Not found.")
	}

	ctx := c.Request().Context()
	user, err := h.service.GetByID(ctx, id)
	if err != nil {
		return err
	}

	profiles, err := h.service.Profiles(ctx, GetUserID(c), []User{*user})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles[0])
}

// ListUsers returns a page of user profiles (GET /api/users).
func (h *Handler) ListUsers(c echo.Context) error {
	opts, err := pagination.FromQuery(c.QueryParams(), h.pageCfg)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	users, total, err := h.service.List(ctx, opts)
	if err != nil {
		return err
	}

	profiles, err := h.service.Profiles(ctx, GetUserID(c), users)
	if err != nil {
		return err
	}

	page, err := pagination.NewPage(profiles, total, opts, pagination.AbsoluteURL(h.baseURL, c.Request()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// SetPassword changes the current user's password (POST /api/users/set_password).
func (h *Handler) SetPassword(c echo.Context) error {
	var req SetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("JSON parse error.")
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	if err := h.service.SetPassword(c.Request().Context(), GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
