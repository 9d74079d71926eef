package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/auth"
	"github.com/loganlanou/stationcargo/internal/identity"
)

// AuthAPIHandler exposes the identity provider to remote authenticators.
type AuthAPIHandler struct {
	svc *auth.Service
}

func NewAuthAPIHandler(svc *auth.Service) *AuthAPIHandler {
	return &AuthAPIHandler{svc: svc}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type grantResponse struct {
	User  *identity.User `json:"user"`
	Token string         `json:"token"`
}

type profileRequest struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	Bio             string `json:"bio"`
	AvatarURL       string `json:"avatar_url"`
	PreferredModule string `json:"preferred_module"`
}

// authError maps identity provider failures onto status codes.
func authError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return jsonError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidInput):
		return jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		return jsonError(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, auth.ErrTokenRevoked):
		return jsonError(c, http.StatusUnauthorized, "Token has been revoked")
	case errors.Is(err, auth.ErrUserNotFound):
		return jsonError(c, http.StatusNotFound, "Profile not found")
	default:
		return internalError(c, "Identity provider failure", err)
	}
}

func (h *AuthAPIHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	grant, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Info("sign-in rejected", "ip", c.RealIP())
		}
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, grantResponse{User: grant.User, Token: grant.Token})
}

func (h *AuthAPIHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	grant, err := h.svc.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusCreated, grantResponse{User: grant.User, Token: grant.Token})
}

// Logout revokes the bearer token of the request.
func (h *AuthAPIHandler) Logout(c echo.Context) error {
	token, ok := auth.GetToken(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "Authentication required")
	}
	if err := h.svc.Logout(c.Request().Context(), token); err != nil {
		return authError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthAPIHandler) Profile(c echo.Context) error {
	p, err := h.svc.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProfile edits the profile of the authenticated user.
func (h *AuthAPIHandler) UpdateProfile(c echo.Context) error {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "Authentication required")
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	p, err := h.svc.UpdateProfile(c.Request().Context(), userID, auth.ProfileUpdate{
		Name:            req.Name,
		Role:            req.Role,
		Bio:             req.Bio,
		AvatarURL:       req.AvatarURL,
		PreferredModule: req.PreferredModule,
	})
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
