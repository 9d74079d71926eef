package auth

import "github.com/labstack/echo/v4"

// Context keys for storing auth data
const (
	ClaimsKey          = "auth_claims"
	TokenKey           = "auth_token"
	IsAuthenticatedKey = "is_authenticated"
	tokenErrorKey      = "auth_token_error"
)

// GetClaims returns the verified token claims of the request.
func GetClaims(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// GetToken returns the verified bearer token of the request.
func GetToken(c echo.Context) (string, bool) {
	tok, ok := c.Get(TokenKey).(string)
	return tok, ok && tok != ""
}

// IsAuthenticated checks if the current request is authenticated
func IsAuthenticated(c echo.Context) bool {
	isAuth, _ := c.Get(IsAuthenticatedKey).(bool)
	return isAuth
}

// GetUserID gets the subject of the verified token.
func GetUserID(c echo.Context) (string, bool) {
	if claims, ok := GetClaims(c); ok {
		return claims.Subject, claims.Subject != ""
	}
	return "", false
}
