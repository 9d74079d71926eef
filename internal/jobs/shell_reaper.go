package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultShellIdleTimeout is how long a device may go without requests
	// before its shell is disposed (30 minutes)
	DefaultShellIdleTimeout = 30 * time.Minute

	// ReapInterval is how often idle shells are looked for (1 minute)
	ReapInterval = time.Minute
)

// Sweeper disposes idle shells; implemented by shell.Registry.
type Sweeper interface {
	Sweep(idle time.Duration, keep func(deviceID string) bool) []string
}

// LivePages tracks the pages a device has open; implemented by live.Hub.
type LivePages interface {
	Connections(deviceID string) int
	Forget(deviceID string)
}

// ShellReaper disposes the shells of devices that went away. A device with
// an open page keeps its shell even without requests.
type ShellReaper struct {
	registry Sweeper
	pages    LivePages
	idle     time.Duration
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
	wg       sync.WaitGroup
}

func NewShellReaper(registry Sweeper, pages LivePages, idle time.Duration) *ShellReaper {
	if idle <= 0 {
		idle = DefaultShellIdleTimeout
	}
	return &ShellReaper{
		registry: registry,
		pages:    pages,
		idle:     idle,
		interval: ReapInterval,
		done:     make(chan bool),
	}
}

// Start begins the shell reaper background job
func (r *ShellReaper) Start(ctx context.Context) {
	slog.Info("starting idle shell reaper", "interval", r.interval, "idle_timeout", r.idle)

	r.ticker = time.NewTicker(r.interval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-r.ticker.C:
				r.Reap()
			case <-ctx.Done():
				return
			case <-r.done:
				slog.Info("idle shell reaper stopped")
				return
			}
		}
	}()
}

// Stop stops the background job
func (r *ShellReaper) Stop() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
	r.wg.Wait()
}

// Reap disposes idle shells once and returns the evicted device IDs.
func (r *ShellReaper) Reap() []string {
	var keep func(string) bool
	if r.pages != nil {
		keep = func(id string) bool { return r.pages.Connections(id) > 0 }
	}

	evicted := r.registry.Sweep(r.idle, keep)
	for _, id := range evicted {
		if r.pages != nil {
			r.pages.Forget(id)
		}
	}

	if len(evicted) > 0 {
		slog.Info("disposed idle shells", "count", len(evicted))
	} else {
		slog.Debug("no idle shells")
	}
	return evicted
}
