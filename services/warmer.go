package services

import (
	"context"
	"time"

	"house-price-api/logging"
	"house-price-api/metrics"
)

// Warmer keeps the cached analytics fresh so requests rarely pay for a
// recompute after the cache entry expires.
type Warmer struct {
	analytics *AnalyticsService
	interval  time.Duration
}

func NewWarmer(analytics *AnalyticsService, interval time.Duration) *Warmer {
	return &Warmer{analytics: analytics, interval: interval}
}

// Run refreshes once immediately and then on every tick until ctx is done.
// A non-positive interval returns at once.
func (w *Warmer) Run(ctx context.Context) error {
	if w.interval <= 0 || !w.analytics.cache.Available() {
		return nil
	}
	logging.Info().Dur("interval", w.interval).Msg("analytics warmer running")

	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runCycle(ctx)
		case <-ctx.Done():
			logging.Info().Msg("analytics warmer shutting down")
			return nil
		}
	}
}

func (w *Warmer) runCycle(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.WarmCycleDuration.Observe(time.Since(start).Seconds())
	}()

	cycleCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := w.analytics.RefreshFeatureImportance(cycleCtx); err != nil {
		metrics.WarmCyclesFailed.Inc()
		logging.Warn().Err(err).Msg("analytics refresh failed")
		return
	}
	logging.Debug().Dur("took", time.Since(start)).Msg("analytics refreshed")
}
