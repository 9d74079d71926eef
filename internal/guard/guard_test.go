package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/internal/kv"
	"github.com/loganlanou/stationcargo/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeNav struct {
	mu        sync.Mutex
	redirects []string
	refreshes int
}

func (n *fakeNav) Redirect(to string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, to)
}

func (n *fakeNav) Refresh() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refreshes++
}

func (n *fakeNav) counts() ([]string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...), n.refreshes
}

// trackingNav reports a protected page open in another tab.
type trackingNav struct {
	fakeNav
	open bool
}

func (n *trackingNav) ShowingProtected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

var crew = &identity.User{ID: "u1", Email: "a@iss.space", Name: "Ana"}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  Status
	}{
		{name: "loading without user", state: session.State{Loading: true}, want: Pending},
		{name: "loading with user", state: session.State{Loading: true, User: crew}, want: Pending},
		{name: "settled without user", state: session.State{}, want: Unauthenticated},
		{name: "settled with user", state: session.State{User: crew}, want: Authenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.state))
		})
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login?redirect_url=%2Fcargo%3Ftab%3Dsearch", LoginURL("/cargo?tab=search"))
	assert.Equal(t, "/login", LoginURL(""))
	assert.Equal(t, "/login", LoginURL("/login"))
}

func TestGuard_PendingNeverShowsContent(t *testing.T) {
	nav := &fakeNav{}
	g := New(nav)

	d := g.Enter("/dashboard")
	assert.Equal(t, Pending, d.Status)
	assert.False(t, d.ShowContent())

	d = g.Evaluate(session.State{Loading: true, User: crew})
	assert.False(t, d.ShowContent())

	redirects, refreshes := nav.counts()
	assert.Empty(t, redirects)
	assert.Zero(t, refreshes)
}

func TestGuard_SingleRedirectPerEpisode(t *testing.T) {
	nav := &fakeNav{}
	g := New(nav)
	g.Enter("/waste")

	signedOut := session.State{}
	for i := 0; i < 5; i++ {
		d := g.Evaluate(signedOut)
		assert.Equal(t, Unauthenticated, d.Status)
		assert.False(t, d.ShowContent())
		assert.Equal(t, "/login?redirect_url=%2Fwaste", d.RedirectTo)
	}

	// a failed login attempt passes through pending without starting a new episode
	g.Evaluate(session.State{Loading: true})
	g.Evaluate(signedOut)

	redirects, _ := nav.counts()
	assert.Equal(t, []string{"/login?redirect_url=%2Fwaste"}, redirects)
}

func TestGuard_NewEpisodeAfterAuthentication(t *testing.T) {
	nav := &fakeNav{}
	g := New(nav)
	g.Enter("/logs")

	g.Evaluate(session.State{})
	g.Evaluate(session.State{User: crew})
	g.Evaluate(session.State{Loading: true, User: crew})
	g.Evaluate(session.State{})

	redirects, _ := nav.counts()
	assert.Len(t, redirects, 2)
}

func TestGuard_UnmountedDoesNotNavigate(t *testing.T) {
	nav := &fakeNav{}
	g := New(nav)
	g.Enter("/storage")
	g.Leave()

	g.Evaluate(session.State{})
	g.Evaluate(session.State{User: crew})

	redirects, refreshes := nav.counts()
	assert.Empty(t, redirects)
	assert.Zero(t, refreshes)
}

func TestGuard_SignOutFromPublicPageRedirectsOpenProtectedPage(t *testing.T) {
	nav := &trackingNav{open: true}
	g := New(nav)
	g.Evaluate(session.State{User: crew})
	g.Enter("/dashboard")

	// another tab posts to a public route, then the session ends
	g.Leave()
	g.Evaluate(session.State{Loading: true, User: crew})
	g.Evaluate(session.State{})
	g.Evaluate(session.State{})

	redirects, _ := nav.counts()
	assert.Equal(t, []string{"/login?redirect_url=%2Fdashboard"}, redirects)
	assert.False(t, g.Mounted())
}

func TestGuard_EnterWhileUnauthenticatedCountsAsNavigation(t *testing.T) {
	nav := &fakeNav{}
	g := New(nav)
	g.Evaluate(session.State{})

	d := g.Enter("/cargo")
	assert.Equal(t, "/login?redirect_url=%2Fcargo", d.RedirectTo)

	g.Evaluate(session.State{})
	redirects, _ := nav.counts()
	assert.Empty(t, redirects)
}

func TestGuard_RefreshWhenWaitingPageAuthenticates(t *testing.T) {
	nav := &fakeNav{}
	g := New(nav)

	assert.Equal(t, Pending, g.Enter("/dashboard").Status)
	d := g.Evaluate(session.State{User: crew})
	assert.True(t, d.ShowContent())

	// content already shown: later notifications do not refresh again
	g.Evaluate(session.State{User: crew})

	_, refreshes := nav.counts()
	assert.Equal(t, 1, refreshes)
}

func TestGuard_WatchStore(t *testing.T) {
	mock := identity.NewMock(0)
	store := session.NewStore(mock, mock, kv.NewMemory())
	nav := &fakeNav{}
	g := New(nav)

	stop := g.Watch(store)
	defer stop()
	assert.Equal(t, Pending, g.Enter("/dashboard").Status)

	// fresh start without a record: exactly one redirect to the login view
	store.Initialize(context.Background())
	redirects, _ := nav.counts()
	assert.Equal(t, []string{"/login?redirect_url=%2Fdashboard"}, redirects)

	g.Leave()
	require.NoError(t, store.Login(context.Background(), "astronaut@iss.space", "password"))
	assert.Equal(t, Authenticated, g.Enter("/dashboard").Status)

	require.NoError(t, store.Logout(context.Background()))
	redirects, _ = nav.counts()
	assert.Len(t, redirects, 2)
	assert.Equal(t, Unauthenticated, g.Decision().Status)
}

func TestProtect(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "protected") }
	loading := func(c echo.Context) error { return c.String(http.StatusOK, "loading") }

	tests := []struct {
		name       string
		state      session.State
		wantStatus int
		wantBody   string
		wantLoc    string
	}{
		{name: "pending", state: session.State{Loading: true}, wantStatus: http.StatusOK, wantBody: "loading"},
		{name: "unauthenticated", state: session.State{}, wantStatus: http.StatusFound, wantLoc: "/login?redirect_url=%2Fcargo%3Fq%3D1"},
		{name: "authenticated", state: session.State{User: crew}, wantStatus: http.StatusOK, wantBody: "protected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(nil)
			g.Evaluate(tt.state)
			mw := Protect(func(echo.Context) (*Guard, error) { return g, nil }, loading)

			req := httptest.NewRequest(http.MethodGet, "/cargo?q=1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			err := mw(ok)(c)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
			}
			assert.True(t, g.Mounted())
			assert.True(t, IsProtected(c))
		})
	}
}

func TestProtect_ResolveError(t *testing.T) {
	e := echo.New()
	mw := Protect(func(echo.Context) (*Guard, error) { return nil, errors.New("no shell") }, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	err := mw(func(echo.Context) error { return nil })(e.NewContext(req, httptest.NewRecorder()))

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}

func TestRelease(t *testing.T) {
	e := echo.New()
	g := New(nil)
	g.Enter("/dashboard")
	mw := Release(func(echo.Context) (*Guard, error) { return g, nil })

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	require.NoError(t, mw(func(echo.Context) error { return nil })(e.NewContext(req, httptest.NewRecorder())))
	assert.False(t, g.Mounted())
}
