package media

import (
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes serves recipe images under the path of mediaURL. When
// MEDIA_URL points at another host (a CDN or reverse proxy serving the
// media directory) nothing is registered.
func RegisterRoutes(e *echo.Echo, h *Handler, mediaURL string) {
	u, err := url.Parse(mediaURL)
	if err != nil || u.Host != "" {
		return
	}
	prefix := "/" + strings.Trim(u.Path, "/")
	if prefix == "/" {
		prefix = ""
	}
	e.GET(prefix+"/"+recipeDir+"/:file", h.Serve)
}
