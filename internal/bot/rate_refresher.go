package bot

import (
	"context"
	"time"

	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
)

// RateRefreshTimeout is the maximum time a single rate refresh can take.
const RateRefreshTimeout = 30 * time.Second

// RateRefresher loads the latest exchange rates into the shared cache.
type RateRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// startRateRefreshLoop refreshes the rate cache once at startup and then on
// every tick of the configured interval.
func (b *Bot) startRateRefreshLoop(ctx context.Context) {
	if b.refresher == nil {
		logger.Log.Info().Msg("Rate refresh is disabled")
		return
	}

	interval := b.cfg.RateRefreshInterval
	if interval <= 0 {
		logger.Log.Info().Msg("Rate refresh interval not set, refreshing once")
		b.refreshRates(ctx)
		return
	}

	logger.Log.Info().Dur("interval", interval).Msg("Rate refresh loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Rate refresh loop stopped")
		return
	default:
	}

	b.refreshRates(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Rate refresh loop stopped")
			return
		case <-ticker.C:
			b.refreshRates(ctx)
		}
	}
}

// refreshRates runs one bounded refresh. Failures keep the current cache.
func (b *Bot) refreshRates(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, RateRefreshTimeout)
	defer cancel()

	refreshCtx, span := b.metrics.StartSpan(refreshCtx, "rates.refresh")
	defer span.End()

	n, err := b.refresher.Refresh(refreshCtx)
	if err != nil {
		span.RecordError(err)
		logger.Log.Warn().Err(err).Msg("Failed to refresh exchange rates")
		return
	}
	logger.Log.Debug().Int("rates", n).Msg("Exchange rates refreshed")
}
