// Package live pushes navigations and session snapshots to the pages a
// device has open, over a websocket per page.
package live

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/guard"
	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/internal/session"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	sendBuffer   = 16

	// DefaultPendingTTL bounds how long a navigation waits for a page to connect.
	DefaultPendingTTL = 15 * time.Second
)

// Message types sent to the browser.
const (
	TypeRedirect = "redirect"
	TypeRefresh  = "refresh"
	TypeSession  = "session"
)

// Message is the JSON frame written to the page.
type Message struct {
	Type    string         `json:"type"`
	To      string         `json:"to,omitempty"`
	Loading bool           `json:"loading,omitempty"`
	User    *identity.User `json:"user,omitempty"`
}

// DeviceFunc identifies the device behind a websocket request.
type DeviceFunc func(r *http.Request) (string, bool)

type conn struct {
	ws   *websocket.Conn
	send chan Message
	done chan struct{}
	once sync.Once

	// page is the request URI of a page served behind the guard; empty for
	// public pages, which never receive navigations.
	page string
}

func (c *conn) close() {
	c.once.Do(func() { close(c.done) })
}

type device struct {
	conns     map[*conn]struct{}
	nav       *Message
	navAt     time.Time
	lastState *Message
}

func (d *device) protected() int {
	n := 0
	for c := range d.conns {
		if c.page != "" {
			n++
		}
	}
	return n
}

// navigation adapts msg to the page c shows: a redirect to the login view
// carries that page as the return target.
func navigation(c *conn, msg Message) Message {
	if msg.Type == TypeRedirect && strings.HasPrefix(msg.To, guard.LoginPath) {
		msg.To = guard.LoginURL(c.page)
	}
	return msg
}

// Hub tracks the open pages of every device.
type Hub struct {
	deviceOf   DeviceFunc
	upgrader   websocket.Upgrader
	pendingTTL time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	devices map[string]*device
	closed  bool
	wg      sync.WaitGroup
}

func NewHub(deviceOf DeviceFunc, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		deviceOf:   deviceOf,
		pendingTTL: DefaultPendingTTL,
		logger:     logger,
		devices:    make(map[string]*device),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Navigator returns the guard navigator of deviceID.
func (h *Hub) Navigator(deviceID string) guard.Navigator {
	return navigator{hub: h, deviceID: deviceID}
}

// Observer returns a session observer that mirrors snapshots to the pages
// of deviceID.
func (h *Hub) Observer(deviceID string) session.Observer {
	return func(st session.State) {
		h.deliver(deviceID, Message{Type: TypeSession, Loading: st.Loading, User: st.User})
	}
}

type navigator struct {
	hub      *Hub
	deviceID string
}

func (n navigator) Redirect(to string) {
	n.hub.deliver(n.deviceID, Message{Type: TypeRedirect, To: to})
}

func (n navigator) Refresh() {
	n.hub.deliver(n.deviceID, Message{Type: TypeRefresh})
}

func (n navigator) ShowingProtected() bool {
	return n.hub.ProtectedPages(n.deviceID) > 0
}

// deliver never blocks: it runs inside session observers. Snapshots go to
// every page; navigations go to protected pages only and are kept until one
// connects.
func (h *Hub) deliver(deviceID string, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	d := h.deviceLocked(deviceID)
	if msg.Type == TypeSession {
		m := msg
		d.lastState = &m
	} else if d.protected() == 0 {
		m := msg
		d.nav = &m
		d.navAt = time.Now()
		return
	}

	for c := range d.conns {
		out := msg
		if msg.Type != TypeSession {
			if c.page == "" {
				continue
			}
			out = navigation(c, msg)
		}
		select {
		case c.send <- out:
		default:
			h.logger.Warn("dropping slow live connection", "device_id", deviceID)
			delete(d.conns, c)
			c.close()
		}
	}
}

func (h *Hub) deviceLocked(id string) *device {
	d, ok := h.devices[id]
	if !ok {
		d = &device{conns: make(map[*conn]struct{})}
		h.devices[id] = d
	}
	return d
}

func (h *Hub) register(deviceID string, c *conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("live hub closed")
	}

	d := h.deviceLocked(deviceID)
	d.conns[c] = struct{}{}
	if d.lastState != nil {
		c.send <- *d.lastState
	}
	if d.nav != nil && c.page != "" {
		if time.Since(d.navAt) <= h.pendingTTL {
			c.send <- navigation(c, *d.nav)
		}
		d.nav = nil
	}
	return nil
}

func (h *Hub) unregister(deviceID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.devices[deviceID]; ok {
		delete(d.conns, c)
		if len(d.conns) == 0 && d.nav == nil {
			delete(h.devices, deviceID)
		}
	}
}

// Forget drops everything kept for deviceID.
func (h *Hub) Forget(deviceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.devices[deviceID]; ok {
		for c := range d.conns {
			c.close()
		}
		delete(h.devices, deviceID)
	}
}

// Connections is the number of open pages of deviceID.
func (h *Hub) Connections(deviceID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.devices[deviceID]; ok {
		return len(d.conns)
	}
	return 0
}

// ProtectedPages is the number of open pages of deviceID served behind the
// guard.
func (h *Hub) ProtectedPages(deviceID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.devices[deviceID]; ok {
		return d.protected()
	}
	return 0
}

// pageOf reads the page a live connection belongs to. Only local paths of
// protected pages are kept.
func pageOf(c echo.Context) string {
	if c.QueryParam("protected") != "1" {
		return ""
	}
	page := c.QueryParam("page")
	if !strings.HasPrefix(page, "/") || strings.HasPrefix(page, "//") {
		return "/"
	}
	return page
}

// Serve upgrades the request and streams messages until the page goes away.
func (h *Hub) Serve(c echo.Context) error {
	deviceID, ok := h.deviceOf(c.Request())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown device")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	cn := &conn{ws: ws, send: make(chan Message, sendBuffer), done: make(chan struct{}), page: pageOf(c)}
	if err := h.register(deviceID, cn); err != nil {
		ws.Close()
		return nil
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.writeLoop(cn)
	}()

	h.readLoop(cn)
	h.unregister(deviceID, cn)
	cn.close()
	return nil
}

// readLoop discards inbound frames; it exists to process control frames
// and notice when the page closes.
func (h *Hub) readLoop(c *conn) {
	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("live connection read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// Close disconnects every page and waits for the writers to stop.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for _, d := range h.devices {
		for c := range d.conns {
			c.close()
		}
	}
	h.devices = make(map[string]*device)
	h.mu.Unlock()

	h.wg.Wait()
}
