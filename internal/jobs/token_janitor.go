package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TokenPurgeInterval is how often expired token revocations are dropped (1 hour)
const TokenPurgeInterval = time.Hour

// RevocationPurger forgets revocations of expired tokens; implemented by
// auth.Service.
type RevocationPurger interface {
	PurgeRevocations(ctx context.Context) (int64, error)
}

type TokenJanitor struct {
	purger RevocationPurger
	ticker *time.Ticker
	done   chan bool
	wg     sync.WaitGroup
}

func NewTokenJanitor(purger RevocationPurger) *TokenJanitor {
	return &TokenJanitor{purger: purger, done: make(chan bool)}
}

// Start begins the revocation purge background job
func (j *TokenJanitor) Start(ctx context.Context) {
	j.ticker = time.NewTicker(TokenPurgeInterval)

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		for {
			select {
			case <-j.ticker.C:
				j.purge(ctx)
			case <-ctx.Done():
				return
			case <-j.done:
				return
			}
		}
	}()
}

func (j *TokenJanitor) purge(ctx context.Context) {
	n, err := j.purger.PurgeRevocations(ctx)
	if err != nil {
		slog.Error("failed to purge token revocations", "error", err)
		return
	}
	slog.Debug("purged token revocations", "count", n)
}

// Stop stops the background job
func (j *TokenJanitor) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
	j.wg.Wait()
}
