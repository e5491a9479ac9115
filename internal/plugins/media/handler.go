package media

import (
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
)

// Handler serves stored recipe images.
type Handler struct {
	mediaPath string
}

// NewHandler creates a handler serving files from mediaPath.
func NewHandler(mediaPath string) *Handler {
	return &Handler{mediaPath: mediaPath}
}

// Serve streams a recipe image (GET <MEDIA_URL>/recipes/:file). File names
// are UUIDs, so responses are cached as immutable.
func (h *Handler) Serve(c echo.Context) error {
	file := c.Param("file")
	if file == "" || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
		return apperror.NewNotFound("Not found.")
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	c.Response().Header().Set("X-Content-Type-Options", "nosniff")
	return c.File(filepath.Join(h.mediaPath, recipeDir, file))
}
