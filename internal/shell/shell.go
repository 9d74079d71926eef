// Package shell keeps one application shell per browser device: the
// device's session store, its route guard, and the wiring between them.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loganlanou/stationcargo/internal/guard"
	"github.com/loganlanou/stationcargo/internal/identity"
	"github.com/loganlanou/stationcargo/internal/kv"
	"github.com/loganlanou/stationcargo/internal/session"
)

// ErrNoShell is returned when a request reaches a handler without a shell.
var ErrNoShell = errors.New("no shell for request")

const contextKey = "shell"

// Shell is the session store and route guard of one device.
type Shell struct {
	DeviceID string
	Store    *session.Store
	Guard    *guard.Guard

	lastSeen atomic.Int64
	ready    chan struct{}
	stops    []func()
}

// Touch records activity on the shell.
func (s *Shell) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen is the time of the last recorded activity.
func (s *Shell) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Ready is closed once the persisted session has been restored.
func (s *Shell) Ready() <-chan struct{} {
	return s.ready
}

func (s *Shell) dispose() {
	for _, stop := range s.stops {
		stop()
	}
	s.Store.Dispose()
}

// Config wires a Registry to its collaborators.
type Config struct {
	Auth     identity.Authenticator
	Profiles identity.ProfileSource
	// Slots is shared by every device; each shell sees it under its own prefix.
	Slots kv.Store
	// Navigator returns the navigator the device's guard drives. Optional.
	Navigator func(deviceID string) guard.Navigator
	// Observer, when set, is subscribed to every new store.
	Observer func(deviceID string) session.Observer
	Logger   *slog.Logger
}

// Registry owns the shells of all devices.
type Registry struct {
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	shells map[string]*Shell
	closed bool
}

func NewRegistry(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		shells: make(map[string]*Shell),
	}
}

// Get returns the shell of deviceID, creating it on first use. A new shell
// starts restoring its persisted session in the background, so the first
// page can observe the pending state.
func (r *Registry) Get(deviceID string) (*Shell, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("shell registry closed")
	}
	if sh, ok := r.shells[deviceID]; ok {
		sh.Touch()
		return sh, nil
	}

	sh := r.newShell(deviceID)
	r.shells[deviceID] = sh

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(sh.ready)
		sh.Store.Initialize(r.ctx)
	}()

	r.logger.Debug("created shell", "device_id", deviceID)
	return sh, nil
}

func (r *Registry) newShell(deviceID string) *Shell {
	slot := kv.NewScoped(r.cfg.Slots, "device:"+deviceID+":")
	store := session.NewStore(r.cfg.Auth, r.cfg.Profiles, slot,
		session.WithLogger(r.logger.With("device_id", deviceID)))

	var nav guard.Navigator
	if r.cfg.Navigator != nil {
		nav = r.cfg.Navigator(deviceID)
	}
	g := guard.New(nav)

	sh := &Shell{
		DeviceID: deviceID,
		Store:    store,
		Guard:    g,
		ready:    make(chan struct{}),
	}
	sh.Touch()
	sh.stops = append(sh.stops, g.Watch(store))
	if r.cfg.Observer != nil {
		if obs := r.cfg.Observer(deviceID); obs != nil {
			sh.stops = append(sh.stops, store.Subscribe(obs))
		}
	}
	return sh
}

// Lookup returns an existing shell without creating one.
func (r *Registry) Lookup(deviceID string) (*Shell, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.shells[deviceID]
	return sh, ok
}

// Len is the number of live shells.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}

// Sweep disposes shells idle for longer than idle, except those keep
// reports as still in use, and returns the removed device IDs. Persisted
// records are kept, so a returning device restores its session as after a
// reload.
func (r *Registry) Sweep(idle time.Duration, keep func(deviceID string) bool) []string {
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	var stale []*Shell
	for id, sh := range r.shells {
		if !sh.LastSeen().Before(cutoff) {
			continue
		}
		if keep != nil && keep(id) {
			sh.Touch()
			continue
		}
		stale = append(stale, sh)
		delete(r.shells, id)
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, sh := range stale {
		sh.dispose()
		ids = append(ids, sh.DeviceID)
		r.logger.Debug("disposed idle shell", "device_id", sh.DeviceID)
	}
	return ids
}

// Close disposes every shell and waits for pending restores.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	shells := r.shells
	r.shells = make(map[string]*Shell)
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
	for _, sh := range shells {
		sh.dispose()
	}
}

// Middleware resolves the device of every request and stores its shell in
// the echo context.
func Middleware(devices *Devices, registry *Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := devices.DeviceID(c)
			if err != nil {
				return err
			}
			sh, err := registry.Get(id)
			if err != nil {
				return err
			}
			c.Set(contextKey, sh)
			return next(c)
		}
	}
}

// FromContext returns the shell stored by Middleware.
func FromContext(c echo.Context) (*Shell, error) {
	sh, ok := c.Get(contextKey).(*Shell)
	if !ok || sh == nil {
		return nil, ErrNoShell
	}
	return sh, nil
}

// ResolveGuard adapts FromContext for the guard middleware.
func ResolveGuard(c echo.Context) (*guard.Guard, error) {
	sh, err := FromContext(c)
	if err != nil {
		return nil, err
	}
	return sh.Guard, nil
}
