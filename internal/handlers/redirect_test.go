package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeReturnTo(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "/cargo", want: "/cargo", ok: true},
		{in: "/logs?actionType=disposal", want: "/logs?actionType=disposal", ok: true},
		{in: "", ok: false},
		{in: "cargo", ok: false},
		{in: "//evil.example", ok: false},
		{in: "https://evil.example/cargo", ok: false},
		{in: "/\\evil.example", ok: false},
		{in: "/login?redirect_url=%2Fcargo", ok: false},
		{in: "/register", ok: false},
		{in: "/api/logs", ok: false},
		{in: "/cargo\r\nSet-Cookie: x", ok: false},
		{in: "/\t/evil.example", ok: false},
		{in: "/\x00/x", ok: false},
		{in: "/cargo\x7f", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := SanitizeReturnTo(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveReturnTo(t *testing.T) {
	e := echo.New()

	// remembered path is used when no explicit target is given
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: returnToCookieName, Value: url.QueryEscape("/waste")})
	rec := httptest.NewRecorder()
	assert.Equal(t, "/waste", ResolveReturnTo(e.NewContext(req, rec), "", "/dashboard", false))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0", "remembered path is cleared")

	// explicit target wins
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: returnToCookieName, Value: url.QueryEscape("/waste")})
	rec = httptest.NewRecorder()
	assert.Equal(t, "/cargo", ResolveReturnTo(e.NewContext(req, rec), "/cargo", "/dashboard", false))

	// unsafe targets fall back
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	rec = httptest.NewRecorder()
	assert.Equal(t, "/dashboard", ResolveReturnTo(e.NewContext(req, rec), "https://evil.example", "/dashboard", false))
}

func TestRememberReturnTo(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/login", nil), rec)

	RememberReturnTo(c, "/module/kibo", true)
	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, returnToCookieName, cookie.Name)
	assert.Equal(t, url.QueryEscape("/module/kibo"), cookie.Value)
	assert.True(t, cookie.Secure)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/login", nil), rec)
	RememberReturnTo(c, "/login", false)
	assert.Empty(t, rec.Result().Cookies())
}
