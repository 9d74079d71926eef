package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganlanou/stationcargo/storage"
)

var fastParams = PasswordParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16}

func setupService(t *testing.T) *Service {
	t.Helper()
	_, queries, cleanup, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(cleanup)

	svc := NewService(queries, NewTokens("test-signing-secret", time.Hour)).WithPasswordParams(fastParams)
	t.Cleanup(svc.Close)
	return svc
}

func TestPassword_HashAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery", fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse battery", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("anything", "$bcrypt$nope")
	assert.Error(t, err)
}

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("secret-a", time.Hour)

	signed, issued, err := tokens.Issue("u1", "a@iss.space", "Engineer")
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "Engineer", claims.Role)

	_, err = NewTokens("secret-b", time.Hour).Parse(signed)
	assert.Error(t, err, "signature from another secret must fail")

	expired, _, err := NewTokens("secret-a", -time.Minute).Issue("u1", "a@iss.space", "Engineer")
	require.NoError(t, err)
	_, err = tokens.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	grant, err := svc.Register(ctx, "Jane Doe", "jane@iss.space", "orbital-pass")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", grant.User.Name)
	assert.Equal(t, "jane@iss.space", grant.User.Email)
	assert.Equal(t, DefaultRole, grant.User.Role)
	require.NotNil(t, grant.User.Profile)
	assert.Equal(t, "Jane Doe", grant.User.Profile.Name)
	assert.NotEmpty(t, grant.Token)

	login, err := svc.Login(ctx, "JANE@iss.space", "orbital-pass")
	require.NoError(t, err)
	assert.Equal(t, grant.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "jane@iss.space", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@iss.space", "orbital-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RegisterValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		fullName string
		email    string
		password string
	}{
		{name: "missing name", email: "a@iss.space", password: "orbital-pass"},
		{name: "bad email", fullName: "A", email: "not-an-email", password: "orbital-pass"},
		{name: "short password", fullName: "A", email: "a@iss.space", password: "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.fullName, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.Register(ctx, "Jane", "jane@iss.space", "orbital-pass")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Jane Again", "Jane@ISS.space", "orbital-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_LogoutRevokesToken(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	grant, err := svc.Register(ctx, "Jane Doe", "jane@iss.space", "orbital-pass")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, grant.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, grant.Token))

	_, err = svc.Authenticate(ctx, grant.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.ErrorIs(t, svc.Logout(ctx, grant.Token), ErrTokenRevoked)

	purged, err := svc.PurgeRevocations(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged, "unexpired revocations are kept")
}

func TestService_Profiles(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	grant, err := svc.Register(ctx, "Jane Doe", "jane@iss.space", "orbital-pass")
	require.NoError(t, err)

	p, err := svc.Profile(ctx, grant.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.Name)

	// cached copies are not shared
	p.Name = "Mutated"
	again, err := svc.Profile(ctx, grant.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", again.Name)

	updated, err := svc.UpdateProfile(ctx, grant.User.ID, ProfileUpdate{
		Role:            "Flight Engineer",
		Bio:             "Robotics",
		PreferredModule: "Kibo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, "Flight Engineer", updated.Role)

	fresh, err := svc.Profile(ctx, grant.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kibo", fresh.PreferredModule)
	assert.Equal(t, "Robotics", fresh.Bio)

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestBearerAuth(t *testing.T) {
	svc := setupService(t)
	grant, err := svc.Register(context.Background(), "Jane Doe", "jane@iss.space", "orbital-pass")
	require.NoError(t, err)

	e := echo.New()
	protected := BearerAuth(svc)(RequireAuth()(func(c echo.Context) error {
		id, ok := GetUserID(c)
		require.True(t, ok)
		tok, ok := GetToken(c)
		require.True(t, ok)
		assert.Equal(t, grant.Token, tok)
		return c.String(http.StatusOK, id)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer " + grant.Token, wantStatus: http.StatusOK, wantBody: grant.User.ID},
		{name: "lowercase scheme", header: "bearer " + grant.Token, wantStatus: http.StatusOK, wantBody: grant.User.ID},
		{name: "no token", wantStatus: http.StatusUnauthorized, wantBody: "Authentication required"},
		{name: "garbage token", header: "Bearer abc.def.ghi", wantStatus: http.StatusUnauthorized, wantBody: "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			require.NoError(t, protected(e.NewContext(req, rec)))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
