package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/foodgram/foodgram/internal/apperror"
)

// Context keys for storing auth data in Echo context. Other plugins use the
// exported getters below rather than the keys.
const (
	contextKeySession = "auth_session"
	contextKeyToken   = "auth_token"
)

// tokenScheme is the Authorization header scheme for API tokens.
const tokenScheme = "Token"

// Authenticate returns middleware that resolves an "Authorization: Token
// <key>" header into a session. Requests without the header continue as
// anonymous; a header carrying an unknown or expired token is rejected with
// 401 even on public endpoints, so clients notice stale tokens.
func Authenticate(service UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			scheme, token, found := strings.Cut(header, " ")
			if !strings.EqualFold(scheme, tokenScheme) {
				// Other schemes are not ours to judge.
				return next(c)
			}
			token = strings.TrimSpace(token)
			if !found || token == "" || strings.Contains(token, " ") {
				return apperror.NewUnauthorized("Invalid token header.")
			}

			session, err := service.ValidateToken(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(contextKeySession, session)
			c.Set(contextKeyToken, token)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests with 401. Must run after
// Authenticate.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetSession(c) == nil {
				return apperror.NewUnauthorized("Authentication credentials were not provided.")
			}
			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin requests: 401 when anonymous, 403 otherwise.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return apperror.NewUnauthorized("Authentication credentials were not provided.")
			}
			if !session.IsAdmin {
				return apperror.NewForbidden("You do not have permission to perform this action.")
			}
			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil for anonymous requests.
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID returns the authenticated user's ID, or 0 when anonymous.
func GetUserID(c echo.Context) int64 {
	if session := GetSession(c); session != nil {
		return session.UserID
	}
	return 0
}

// IsAdmin reports whether the viewer is an authenticated admin.
func IsAdmin(c echo.Context) bool {
	session := GetSession(c)
	return session != nil && session.IsAdmin
}

// getToken returns the raw token the request authenticated with.
func getToken(c echo.Context) string {
	token, _ := c.Get(contextKeyToken).(string)
	return token
}
