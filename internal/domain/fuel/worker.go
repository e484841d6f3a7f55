package fuel

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// RefillWorker runs the daily refill sweep on a cron schedule (UTC).
// Requests refill lazily anyway; the sweep keeps idle balances current for
// reporting and the cached HUD projection.
type RefillWorker struct {
	svc      *Service
	cron     *cron.Cron
	schedule string
}

// NewRefillWorker validates the cron schedule and schedules the sweep. Call Start to run it.
func NewRefillWorker(svc *Service, schedule string) (*RefillWorker, error) {
	w := &RefillWorker{
		svc:      svc,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
	}
	if _, err := w.cron.AddFunc(schedule, w.RunOnce); err != nil {
		return nil, err
	}
	return w, nil
}

// Start begins the background scheduler
func (w *RefillWorker) Start() {
	log.Info().Str("schedule", w.schedule).Msg("Starting fuel refill worker...")
	w.cron.Start()
}

// Stop waits for a running sweep to finish, up to timeout.
func (w *RefillWorker) Stop(timeout time.Duration) {
	log.Info().Msg("Stopping fuel refill worker...")
	ctx := w.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		log.Warn().Msg("Fuel refill worker did not stop in time")
	}
}

// RunOnce performs a single sweep.
func (w *RefillWorker) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	n, err := w.svc.RefillStale(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refill stale fuel balances")
		return
	}
	log.Info().
		Int64("count", n).
		Dur("duration", time.Since(start)).
		Str("day", w.svc.Today()).
		Msg("Refilled stale fuel balances")
}
