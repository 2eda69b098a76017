package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-vip-subscription/internal/infra/metrics"
)

// Sweeper removes lapsed entitlements. Returns how many were removed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// ExpiryWorker periodically sweeps expired subscriptions.
type ExpiryWorker struct {
	interval time.Duration
	sweeper  Sweeper
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, sweeper Sweeper, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, sweeper: sweeper, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// One sweep at startup so a long downtime doesn't leave stale access
	// around until the first tick.
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep error")
	}
	if n > 0 {
		metrics.IncSubscriptionsExpired(n)
		w.log.Info().Int("count", n).Msg("expired subscriptions swept")
	}
}
