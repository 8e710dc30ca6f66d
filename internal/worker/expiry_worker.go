package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/veritest/veritest-backend/internal/service"
)

// expiryBatchSize caps how many overdue sessions a single sweep finalizes.
const expiryBatchSize = 100

// ExpiryWorker periodically finalizes timed sessions whose clock ran out
// while no request or channel event was there to notice. Expiry is still
// enforced at every mutation point; the sweep only closes sessions that
// were abandoned mid-run.
type ExpiryWorker struct {
	sessionService *service.SessionService
	interval       time.Duration
	log            zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(sessionService *service.SessionService, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		sessionService: sessionService,
		interval:       interval,
		log:            log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	expired, err := w.sessionService.ExpireOverdue(ctx, expiryBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Sweep failed")
		return
	}
	if expired > 0 {
		w.log.Info().Int("count", expired).Msg("Expired overdue sessions")
	}
}
