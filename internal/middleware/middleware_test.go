package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/ratelimit"
)

func newContext(e *echo.Echo, method, path string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	e := echo.New()
	limiter := ratelimit.New(0.001, 2, time.Minute)
	defer limiter.Stop()

	h := RateLimit(limiter)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		c, rec := newContext(e, http.MethodPost, "/api/auth/token/login")
		if err := h(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected status sequence: %v", codes)
	}
}

func TestRecovery_ReturnsJSON500(t *testing.T) {
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/boom")

	h := Recovery()(func(echo.Context) error { panic("kaboom") })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRequestID_GeneratesAndReuses(t *testing.T) {
	e := echo.New()

	c, rec := newContext(e, http.MethodGet, "/")
	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := RequestID()(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "upstream-id" {
		t.Errorf("expected upstream id to be kept, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodOptions, "/api/recipes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}})(okHandler)
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("expected allow-origin header")
	}
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := CORS(CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}})(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unexpected allow-origin header for unknown origin")
	}
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	c, rec := newContext(e, http.MethodGet, "/")
	if err := SecurityHeaders(false)(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected nosniff")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must be off when disabled")
	}
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperror.NewNotFound("recipe not found"), http.StatusNotFound},
		{apperror.NewConflict("already exists"), http.StatusBadRequest},
		{echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := errorStatus(tc.err); got != tc.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestBuildIPExtractor(t *testing.T) {
	extract := buildIPExtractor([]string{"10.0.0.0/8", "bogus"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.1.2.3")
	if got := extract(req); got != "198.51.100.4" {
		t.Errorf("expected forwarded client, got %q", got)
	}

	req.RemoteAddr = "203.0.113.9:5555"
	if got := extract(req); got != "203.0.113.9" {
		t.Errorf("untrusted peer must not be able to spoof, got %q", got)
	}
}
