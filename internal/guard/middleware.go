package guard

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProtectedKey marks requests served behind Protect.
const ProtectedKey = "guard_protected"

// IsProtected reports whether the request passed through Protect.
func IsProtected(c echo.Context) bool {
	v, _ := c.Get(ProtectedKey).(bool)
	return v
}

// ResolveFunc finds the guard of the device behind a request.
type ResolveFunc func(c echo.Context) (*Guard, error)

// Protect serves a protected route group: the loading view while the
// session is pending, a redirect to the login view while unauthenticated,
// and the route itself once authenticated.
func Protect(resolve ResolveFunc, loading echo.HandlerFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			g, err := resolve(c)
			if err != nil {
				slog.Error("failed to resolve route guard", "error", err, "path", c.Request().URL.Path)
				return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
			}

			c.Set(ProtectedKey, true)
			d := g.Enter(c.Request().URL.RequestURI())
			switch d.Status {
			case Authenticated:
				return next(c)
			case Unauthenticated:
				return c.Redirect(http.StatusFound, d.RedirectTo)
			default:
				c.Response().Header().Set("Cache-Control", "no-store")
				return loading(c)
			}
		}
	}
}

// Release unmounts the device's guard before a public page is served, so
// session changes there do not trigger guard navigations.
func Release(resolve ResolveFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g, err := resolve(c); err == nil {
				g.Leave()
			}
			return next(c)
		}
	}
}
