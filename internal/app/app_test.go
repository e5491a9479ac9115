package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:            "development",
		Port:           8080,
		BaseURL:        "http://localhost:8080",
		CORSOrigins:    []string{"http://localhost:3000"},
		TrustedProxies: []string{"127.0.0.0/8"},
		Auth: config.AuthConfig{
			SecretKey:      "test-secret-key-test-secret-key-!!",
			TokenTTL:       time.Hour,
			RateLimitRPS:   1,
			RateLimitBurst: 5,
		},
		Upload: config.UploadConfig{
			MaxSize:      1 << 20,
			MaxDimension: 100,
			MediaPath:    t.TempDir(),
			MediaURL:     "/media",
		},
		Pagination: config.PaginationConfig{PageSize: 6, MaxPageSize: 100},
	}
}

// newTestApp wires the full router without a database or Redis. Only
// routes that reject the request before touching a store are exercised.
func newTestApp(t *testing.T) *App {
	t.Helper()
	a := New(testConfig(t), nil, nil)
	a.RegisterRoutes()
	t.Cleanup(a.authLimiter.Stop)
	return a
}

func serve(a *App, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestErrorResponse_PayloadShapes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body any
	}{
		{
			"field errors",
			apperror.NewFieldErrors(map[string][]string{"tags": {"At least one tag is required."}}),
			400,
			map[string][]string{"tags": {"At least one tag is required."}},
		},
		{
			"conflict",
			apperror.NewConflict("Recipe already exists in favorites."),
			400,
			map[string]string{"errors": "Recipe already exists in favorites."},
		},
		{
			"not found",
			apperror.NewNotFound("Not found."),
			404,
			map[string]string{"detail": "Not found."},
		},
		{
			"internal hides cause",
			apperror.NewInternal(errors.New("dial tcp: connection refused")),
			500,
			map[string]string{"detail": "An unexpected error occurred. Please try again."},
		},
		{
			"router 404",
			echo.ErrNotFound,
			404,
			map[string]string{"detail": "Not found."},
		},
		{
			"plain error",
			errors.New("boom"),
			500,
			map[string]string{"detail": "An unexpected error occurred. Please try again."},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := errorResponse(tc.err, "/api/test")
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.body, body)
		})
	}
}

func TestRoutes_AnonymousWritesRejected(t *testing.T) {
	a := newTestApp(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/recipes"},
		{http.MethodPatch, "/api/recipes/1"},
		{http.MethodDelete, "/api/recipes/1"},
		{http.MethodPost, "/api/recipes/1/favorite"},
		{http.MethodDelete, "/api/recipes/1/shopping_cart"},
		{http.MethodGet, "/api/recipes/download_shopping_cart/"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/users/subscriptions"},
		{http.MethodPost, "/api/users/2/subscribe"},
		{http.MethodPost, "/api/tags"},
		{http.MethodPost, "/api/ingredients"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serve(a, tc.method, tc.path, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Authentication credentials were not provided.", decode(t, rec)["detail"])
		})
	}
}

func TestRoutes_UnknownPath(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found.", decode(t, rec)["detail"])
}

func TestRoutes_MalformedTokenHeader(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.Header.Set("Authorization", "Token")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token header.", decode(t, rec)["detail"])
}

func TestRoutes_SecurityAndRequestIDHeaders(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, http.MethodGet, "/api/nope", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "no HSTS in development")
}

func TestJSONSerializer_Deserialize(t *testing.T) {
	e := echo.New()
	s := JSONSerializer{}

	var target struct {
		CookingTime int `json:"cooking_time"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"cooking_time": 15}`))
	c := e.NewContext(req, httptest.NewRecorder())
	require.NoError(t, s.Deserialize(c, &target))
	assert.Equal(t, 15, target.CookingTime)

	for _, body := range []string{`{"cooking_time": "soon"}`, `{"cooking_time": x}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c := e.NewContext(req, httptest.NewRecorder())
		err := s.Deserialize(c, &target)

		var httpErr *echo.HTTPError
		if assert.ErrorAs(t, err, &httpErr, body) {
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		}
	}
}

func TestJSONSerializer_Serialize(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, JSONSerializer{}.Serialize(c, map[string]int{"count": 2}, ""))
	assert.JSONEq(t, `{"count": 2}`, rec.Body.String())
}
