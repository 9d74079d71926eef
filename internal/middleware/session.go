package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/api"
	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/internal/shell"
)

// Context keys set by LoadSession
const (
	UserKey            = "user"
	IsAuthenticatedKey = "is_authenticated"
	SessionLoadingKey  = "session_loading"
)

// LoadSession copies the session snapshot of the device shell into the echo
// context and attaches the session token to the request context, so the
// cargo client calls made while handling the request carry it.
func LoadSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sh, err := shell.FromContext(c)
			if err != nil {
				slog.Debug("no shell for request", "path", c.Request().URL.Path)
				c.Set(UserKey, (*identity.User)(nil))
				c.Set(IsAuthenticatedKey, false)
				return next(c)
			}

			st := sh.Store.State()
			c.Set(UserKey, st.User)
			c.Set(IsAuthenticatedKey, st.Authenticated())
			c.Set(SessionLoadingKey, st.Loading)

			if tok := sh.Store.Token(); tok != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(api.WithToken(req.Context(), tok)))
			}

			return next(c)
		}
	}
}

// GetUser returns the signed-in user of the request, or nil.
func GetUser(c echo.Context) *identity.User {
	u, _ := c.Get(UserKey).(*identity.User)
	return u
}

func IsAuthenticated(c echo.Context) bool {
	ok, _ := c.Get(IsAuthenticatedKey).(bool)
	return ok
}

// IsLoading reports whether the session was still being established.
func IsLoading(c echo.Context) bool {
	loading, _ := c.Get(SessionLoadingKey).(bool)
	return loading
}
