package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
)

const returnToCookieName = "stationcargo_return_to"

var disallowedReturnTo = map[string]struct{}{
	"/login":    {},
	"/register": {},
	"/logout":   {},
	"/live":     {},
}

// SanitizeReturnTo accepts only local paths that are not part of the
// sign-in flow.
func SanitizeReturnTo(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	// Browsers drop tabs and newlines while parsing, so "/\t/host" becomes "//host".
	if strings.ContainsRune(path, '\\') || strings.IndexFunc(path, unicode.IsControl) >= 0 {
		return "", false
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return "", false
	}

	if !strings.HasPrefix(path, "/") {
		return "", false
	}

	base := path
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		base = path[:idx]
	}

	if _, blocked := disallowedReturnTo[base]; blocked {
		return "", false
	}

	if strings.HasPrefix(base, "/api/") {
		return "", false
	}

	return path, true
}

// RememberReturnTo keeps path for after sign-in so it survives a detour
// through the register page.
func RememberReturnTo(c echo.Context, path string, secure bool) {
	if sanitized, ok := SanitizeReturnTo(path); ok {
		c.SetCookie(&http.Cookie{
			Name:     returnToCookieName,
			Value:    url.QueryEscape(sanitized),
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   300, // 5 minutes
		})
	}
}

func clearReturnTo(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     returnToCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// PopReturnTo returns the remembered path, if any, and forgets it.
func PopReturnTo(c echo.Context, secure bool) string {
	cookie, err := c.Cookie(returnToCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}

	clearReturnTo(c, secure)

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}

	sanitized, ok := SanitizeReturnTo(decoded)
	if !ok {
		return ""
	}

	return sanitized
}

// ResolveReturnTo picks where to go after sign-in: the explicit target,
// then the remembered one, then fallback.
func ResolveReturnTo(c echo.Context, explicit, fallback string, secure bool) string {
	remembered := PopReturnTo(c, secure)
	if target, ok := SanitizeReturnTo(explicit); ok {
		return target
	}
	if remembered != "" {
		return remembered
	}
	return fallback
}
