package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loganlanou/stationcargo/storage"
	"github.com/loganlanou/stationcargo/storage/db"
)

// DefaultWasteSweepInterval is how often cargo is checked for waste (10 minutes)
const DefaultWasteSweepInterval = 10 * time.Minute

// WasteDetector flags cargo that expired before the current station day or
// used up its usage limit, between day simulations.
type WasteDetector struct {
	storage  *storage.Storage
	interval time.Duration
	ticker   *time.Ticker
	done     chan bool
	wg       sync.WaitGroup
}

func NewWasteDetector(storage *storage.Storage, interval time.Duration) *WasteDetector {
	if interval <= 0 {
		interval = DefaultWasteSweepInterval
	}
	return &WasteDetector{
		storage:  storage,
		interval: interval,
		done:     make(chan bool),
	}
}

// Start begins the waste detection background job
func (d *WasteDetector) Start(ctx context.Context) {
	slog.Info("starting waste detector", "interval", d.interval)

	// Run immediately on start
	if _, err := d.Detect(ctx); err != nil {
		slog.Error("waste detection failed", "error", err)
	}

	// Then run on interval
	d.ticker = time.NewTicker(d.interval)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.ticker.C:
				if _, err := d.Detect(ctx); err != nil {
					slog.Error("waste detection failed", "error", err)
				}
			case <-ctx.Done():
				return
			case <-d.done:
				slog.Info("waste detector stopped")
				return
			}
		}
	}()
}

// Stop stops the background job
func (d *WasteDetector) Stop() {
	if d.ticker != nil {
		d.ticker.Stop()
	}
	close(d.done)
	d.wg.Wait()
}

// Detect runs one detection pass and returns how many items became waste.
func (d *WasteDetector) Detect(ctx context.Context) (int64, error) {
	day, err := d.storage.Queries.GetStationDay(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read station day: %w", err)
	}

	expired, err := d.storage.Queries.MarkExpiredAsWaste(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("failed to flag expired cargo: %w", err)
	}
	depleted, err := d.storage.Queries.MarkDepletedAsWaste(ctx)
	if err != nil {
		return expired, fmt.Errorf("failed to flag depleted cargo: %w", err)
	}

	total := expired + depleted
	if total > 0 {
		slog.Info("waste detection complete", "day", day, "expired", expired, "depleted", depleted)
		err := d.storage.Queries.CreateActivityLog(ctx, db.CreateActivityLogParams{
			UserID:     "system",
			ActionType: "disposal",
			Details:    fmt.Sprintf("Waste detector flagged %d expired and %d depleted items", expired, depleted),
		})
		if err != nil {
			slog.Error("failed to record waste detection", "error", err)
		}
	} else {
		slog.Debug("waste detection complete", "day", day)
	}
	return total, nil
}
