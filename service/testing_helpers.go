package service

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/storage"
)

// testConfig uses the in-process backends so no network is needed.
func testConfig() *Config {
	cfg := &Config{
		Environment:   "test",
		Port:          "8080",
		BaseURL:       "http://localhost:8080",
		SessionSecret: "test-session-secret",
		JWT:           JWT{Secret: "test-jwt-secret", TTL: time.Hour},
		Auth:          Auth{Backend: BackendMock},
		API:           API{Backend: BackendMock, Timeout: time.Second},
		Slots:         Slots{Backend: SlotsMemory},
		Shell:         Shell{IdleTimeout: time.Hour},
		Waste:         Waste{SweepInterval: time.Hour, NextPickup: 14 * 24 * time.Hour},
		Upload:        Upload{MaxSize: 1 << 20},
	}
	if err := cfg.normalize(); err != nil {
		panic(err)
	}
	return cfg
}

// setupTestService creates a service instance with an in-memory database for testing
func setupTestService(t *testing.T) *Service {
	t.Helper()

	database, _, cleanup, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(cleanup)

	svc, err := New(storage.NewWithDB(database), testConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	t.Cleanup(svc.Close)

	return svc
}

// setupTestEcho creates an Echo instance with routes registered
func setupTestEcho(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()

	e := echo.New()
	svc := setupTestService(t)
	svc.RegisterRoutes(e)

	return e, svc
}

// browser replays the cookies of one device across requests.
type browser struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, e *echo.Echo) *browser {
	return &browser{t: t, e: e, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.do(req)
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return rec
}

// request builds a request carrying the browser's cookies.
func (b *browser) request() *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	return req
}

// settle visits a public page and waits until the device's session has
// been restored.
func (b *browser) settle(svc *Service) {
	b.t.Helper()
	b.get("/landing")

	id, ok := svc.devices.Lookup(b.request())
	if !ok {
		b.t.Fatal("device cookie was not issued")
	}
	sh, ok := svc.shells.Lookup(id)
	if !ok {
		b.t.Fatal("no shell for device")
	}
	select {
	case <-sh.Ready():
	case <-time.After(2 * time.Second):
		b.t.Fatal("session restore did not finish")
	}
}

// signIn settles the device and signs in as the demo commander.
func (b *browser) signIn(svc *Service) {
	b.t.Helper()
	b.settle(svc)
	rec := b.post("/login", url.Values{"email": {"davis@iss.space"}, "password": {"orbit-pass"}})
	if rec.Code != http.StatusSeeOther {
		b.t.Fatalf("sign in failed: %d %s", rec.Code, rec.Body.String())
	}
}
