package service

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/guard"
	"github.com/loganlanou/stationcargo/internal/handlers"
	"github.com/loganlanou/stationcargo/internal/middleware"
	"github.com/loganlanou/stationcargo/internal/session"
	"github.com/loganlanou/stationcargo/internal/shell"
	"github.com/loganlanou/stationcargo/views/layout"
	"github.com/loganlanou/stationcargo/views/public"
)

// MinPasswordLength is enforced by the registration form.
const MinPasswordLength = 8

// Notices that survive a redirect, keyed by the "notice" query parameter.
var redirectNotices = map[string]layout.Notice{
	"signed-out":             {Kind: layout.NoticeInfo, Message: "You have been signed out."},
	"signout-failed":         {Kind: layout.NoticeError, Message: "You were signed out on this device, but the identity service could not be reached."},
	"profile-refreshed":      {Kind: layout.NoticeSuccess, Message: "Profile refreshed."},
	"profile-refresh-failed": {Kind: layout.NoticeError, Message: "Your profile could not be refreshed. Please try again."},
}

// page builds the chrome of the current request.
func (s *Service) page(c echo.Context, title string) layout.Page {
	p := layout.Page{
		Title:     title,
		Path:      c.Request().URL.Path,
		User:      middleware.GetUser(c),
		Loading:   middleware.IsLoading(c),
		Protected: guard.IsProtected(c),
	}
	if n, ok := redirectNotices[c.QueryParam("notice")]; ok {
		p.Notices = append(p.Notices, n)
	}
	return p
}

func withNotice(path, code string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "notice=" + url.QueryEscape(code)
}

func (s *Service) handleLoading(c echo.Context) error {
	return Render(c, public.Loading(s.page(c, "Loading")))
}

func (s *Service) handleNotFound(c echo.Context) error {
	return RenderStatus(c, http.StatusNotFound, public.NotFound(s.page(c, "Not found")))
}

func (s *Service) handleLanding(c echo.Context) error {
	p := s.page(c, "")
	p.Description = "Cargo placement, retrieval and waste tracking for the station crew."
	return Render(c, public.Landing(p))
}

func (s *Service) handleLoginPage(c echo.Context) error {
	redirect := c.QueryParam("redirect_url")
	if middleware.IsAuthenticated(c) {
		return c.Redirect(http.StatusFound, handlers.ResolveReturnTo(c, redirect, "/dashboard", s.config.Secure()))
	}
	if redirect != "" {
		handlers.RememberReturnTo(c, redirect, s.config.Secure())
	}
	return Render(c, public.Login(s.page(c, "Sign in"), public.LoginForm{RedirectURL: redirect}))
}

func (s *Service) handleLogin(c echo.Context) error {
	sh, err := shell.FromContext(c)
	if err != nil {
		return err
	}

	form := public.LoginForm{
		Email:       strings.TrimSpace(c.FormValue("email")),
		RedirectURL: c.FormValue("redirect_url"),
	}
	password := c.FormValue("password")
	p := s.page(c, "Sign in")

	if form.Email == "" || password == "" {
		return RenderStatus(c, http.StatusBadRequest, public.Login(p.WithNotice(layout.NoticeError, "Email and password are required."), form))
	}

	if err := sh.Store.Login(c.Request().Context(), form.Email, password); err != nil {
		msg := "Sign in failed. Please try again."
		var authErr *session.AuthenticationError
		if errors.As(err, &authErr) {
			msg = authErr.Reason
		}
		slog.Info("sign in failed", "device_id", sh.DeviceID, "error", err)
		return RenderStatus(c, http.StatusUnauthorized, public.Login(p.WithNotice(layout.NoticeError, msg), form))
	}

	return c.Redirect(http.StatusSeeOther, handlers.ResolveReturnTo(c, form.RedirectURL, "/dashboard", s.config.Secure()))
}

func (s *Service) handleRegisterPage(c echo.Context) error {
	redirect := c.QueryParam("redirect_url")
	if middleware.IsAuthenticated(c) {
		return c.Redirect(http.StatusFound, handlers.ResolveReturnTo(c, redirect, "/dashboard", s.config.Secure()))
	}
	return Render(c, public.Register(s.page(c, "Register"), public.RegisterForm{RedirectURL: redirect}))
}

func (s *Service) handleRegister(c echo.Context) error {
	sh, err := shell.FromContext(c)
	if err != nil {
		return err
	}

	form := public.RegisterForm{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Email:       strings.TrimSpace(c.FormValue("email")),
		RedirectURL: c.FormValue("redirect_url"),
	}
	password := c.FormValue("password")
	p := s.page(c, "Register")

	var problem string
	switch {
	case form.Name == "" || form.Email == "" || password == "":
		problem = "Name, email and password are required."
	case len(password) < MinPasswordLength:
		problem = "Password must be at least 8 characters."
	case password != c.FormValue("confirm_password"):
		problem = "Passwords do not match."
	}
	if problem != "" {
		return RenderStatus(c, http.StatusBadRequest, public.Register(p.WithNotice(layout.NoticeError, problem), form))
	}

	if err := sh.Store.Register(c.Request().Context(), form.Name, form.Email, password); err != nil {
		msg := "Registration failed. Please try again."
		var regErr *session.RegistrationError
		if errors.As(err, &regErr) {
			msg = regErr.Reason
		}
		slog.Info("registration failed", "device_id", sh.DeviceID, "error", err)
		return RenderStatus(c, http.StatusUnprocessableEntity, public.Register(p.WithNotice(layout.NoticeError, msg), form))
	}

	return c.Redirect(http.StatusSeeOther, handlers.ResolveReturnTo(c, form.RedirectURL, "/dashboard", s.config.Secure()))
}

func (s *Service) handleLogout(c echo.Context) error {
	sh, err := shell.FromContext(c)
	if err != nil {
		return err
	}

	code := "signed-out"
	if err := sh.Store.Logout(c.Request().Context()); err != nil {
		slog.Warn("provider sign-out failed", "device_id", sh.DeviceID, "error", err)
		code = "signout-failed"
	}
	return c.Redirect(http.StatusSeeOther, withNotice("/login", code))
}

func (s *Service) handleProfileRefresh(c echo.Context) error {
	sh, err := shell.FromContext(c)
	if err != nil {
		return err
	}

	back, ok := handlers.SanitizeReturnTo(c.FormValue("from"))
	if !ok {
		back = "/dashboard"
	}

	code := "profile-refreshed"
	if err := sh.Store.RefreshProfile(c.Request().Context()); err != nil {
		slog.Warn("profile refresh failed", "device_id", sh.DeviceID, "error", err)
		code = "profile-refresh-failed"
	}
	return c.Redirect(http.StatusSeeOther, withNotice(back, code))
}
