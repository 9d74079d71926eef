package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// BearerAuth verifies the bearer token of a request when one is present and
// stores its claims in the echo context. Requests without a token pass
// through unauthenticated; RequireAuth rejects them where needed.
func BearerAuth(svc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c.Request())
			if token == "" {
				c.Set(IsAuthenticatedKey, false)
				return next(c)
			}

			claims, err := svc.Authenticate(c.Request().Context(), token)
			if err != nil {
				slog.Debug("bearer token rejected", "path", c.Request().URL.Path, "error", err)
				c.Set(IsAuthenticatedKey, false)
				c.Set(tokenErrorKey, err)
				return next(c)
			}

			c.Set(ClaimsKey, claims)
			c.Set(TokenKey, token)
			c.Set(IsAuthenticatedKey, true)
			return next(c)
		}
	}
}

// RequireAuth answers 401 unless BearerAuth authenticated the request.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAuthenticated(c) {
				msg := "Authentication required"
				if err, ok := c.Get(tokenErrorKey).(error); ok && err != nil {
					msg = "Invalid or expired token"
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg})
			}
			return next(c)
		}
	}
}

func extractBearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
