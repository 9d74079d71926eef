package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/loganlanou/stationcargo/internal/guard"
	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/internal/kv"
	"github.com/loganlanou/stationcargo/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// deviceHeader identifies test devices without cookies.
func deviceHeader(r *http.Request) (string, bool) {
	id := r.Header.Get("X-Device")
	return id, id != ""
}

func setupHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(deviceHeader, nil)
	e := echo.New()
	e.GET("/live", hub.Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/live"
}

func dial(t *testing.T, url, device string) *websocket.Conn {
	t.Helper()
	return dialPage(t, url, device, "")
}

// dialPage connects as a page served behind the guard when page is set.
func dialPage(t *testing.T, url, device, page string) *websocket.Conn {
	t.Helper()
	if page != "" {
		url += "?protected=1&page=" + neturl.QueryEscape(page)
	}
	header := http.Header{}
	header.Set("X-Device", device)
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func waitConnections(t *testing.T, hub *Hub, device string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.Connections(device) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PendingRedirectDeliveredOnConnect(t *testing.T) {
	hub, url := setupHub(t)

	hub.Navigator("dev-1").Redirect("/login?redirect_url=%2Fcargo")
	ws := dialPage(t, url, "dev-1", "/cargo")

	msg := readMessage(t, ws)
	assert.Equal(t, TypeRedirect, msg.Type)
	assert.Equal(t, "/login?redirect_url=%2Fcargo", msg.To)
}

func TestHub_StalePendingNavigationDropped(t *testing.T) {
	hub, url := setupHub(t)
	hub.pendingTTL = 0

	hub.Navigator("dev-1").Refresh()
	time.Sleep(5 * time.Millisecond)
	ws := dialPage(t, url, "dev-1", "/cargo")
	waitConnections(t, hub, "dev-1", 1)

	hub.Observer("dev-1")(session.State{Loading: true})
	msg := readMessage(t, ws)
	assert.Equal(t, TypeSession, msg.Type)
	assert.True(t, msg.Loading)
}

func TestHub_LiveNavigationAndSnapshots(t *testing.T) {
	hub, url := setupHub(t)
	ws := dialPage(t, url, "dev-1", "/dashboard")
	other := dialPage(t, url, "dev-2", "/dashboard")
	waitConnections(t, hub, "dev-1", 1)
	waitConnections(t, hub, "dev-2", 1)

	hub.Observer("dev-1")(session.State{User: &identity.User{ID: "u1", Email: "a@iss.space", Name: "Ana"}})
	hub.Navigator("dev-1").Refresh()

	msg := readMessage(t, ws)
	assert.Equal(t, TypeSession, msg.Type)
	require.NotNil(t, msg.User)
	assert.Equal(t, "Ana", msg.User.Name)
	assert.False(t, msg.Loading)

	msg = readMessage(t, ws)
	assert.Equal(t, TypeRefresh, msg.Type)

	// the other device hears nothing
	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_LastSnapshotSentOnConnect(t *testing.T) {
	hub, url := setupHub(t)

	hub.Observer("dev-1")(session.State{Loading: true})
	hub.Observer("dev-1")(session.State{})
	ws := dial(t, url, "dev-1")

	msg := readMessage(t, ws)
	assert.Equal(t, TypeSession, msg.Type)
	assert.False(t, msg.Loading)
	assert.Nil(t, msg.User)
}

func TestHub_UnknownDeviceRejected(t *testing.T) {
	_, url := setupHub(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, url := setupHub(t)
	ws := dial(t, url, "dev-1")
	waitConnections(t, hub, "dev-1", 1)

	require.NoError(t, ws.Close())
	waitConnections(t, hub, "dev-1", 0)
}

func TestHub_Forget(t *testing.T) {
	hub, url := setupHub(t)
	dial(t, url, "dev-1")
	waitConnections(t, hub, "dev-1", 1)

	hub.Forget("dev-1")
	assert.Zero(t, hub.Connections("dev-1"))
}

func TestHub_NavigationsReachProtectedPagesOnly(t *testing.T) {
	hub, url := setupHub(t)
	login := dial(t, url, "dev-1")
	ws := dialPage(t, url, "dev-1", "/storage")
	waitConnections(t, hub, "dev-1", 2)
	assert.Equal(t, 1, hub.ProtectedPages("dev-1"))

	hub.Navigator("dev-1").Redirect("/login?redirect_url=%2Fcargo")

	msg := readMessage(t, ws)
	assert.Equal(t, TypeRedirect, msg.Type)
	assert.Equal(t, "/login?redirect_url=%2Fstorage", msg.To)

	require.NoError(t, login.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := login.ReadMessage()
	assert.Error(t, err)
}

func TestHub_SignOutFromAnotherPageRedirectsProtectedPage(t *testing.T) {
	hub, url := setupHub(t)
	store := session.NewStore(identity.NewMock(0), identity.NewMock(0), kv.NewMemory())
	t.Cleanup(store.Dispose)

	g := guard.New(hub.Navigator("dev-1"))
	stopGuard := g.Watch(store)
	t.Cleanup(stopGuard)
	store.Initialize(context.Background())
	require.NoError(t, store.Login(context.Background(), "davis@iss.space", "orbit-pass"))

	// first tab shows the dashboard
	require.Equal(t, guard.Authenticated, g.Enter("/dashboard").Status)
	dashboard := dialPage(t, url, "dev-1", "/dashboard")
	waitConnections(t, hub, "dev-1", 1)

	// second tab signs out through a public route
	g.Leave()
	require.NoError(t, store.Logout(context.Background()))

	var redirects []Message
	for range 3 {
		if msg := readMessage(t, dashboard); msg.Type == TypeRedirect {
			redirects = append(redirects, msg)
			break
		}
	}
	require.Len(t, redirects, 1)
	assert.Equal(t, "/login?redirect_url=%2Fdashboard", redirects[0].To)
}
