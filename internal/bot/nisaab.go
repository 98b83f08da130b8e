package bot

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// NisaabCache stores one Nisaab snapshot per currency and day.
type NisaabCache interface {
	Get(ctx context.Context, currency string, day time.Time) (*models.NisaabData, error)
	Put(ctx context.Context, data *models.NisaabData) error
}

// cachedNisaab serves today's Nisaab from the cache before asking the API.
type cachedNisaab struct {
	cache  NisaabCache
	remote NisaabSource
	now    func() time.Time
}

func newCachedNisaab(cache NisaabCache, remote NisaabSource) *cachedNisaab {
	return &cachedNisaab{cache: cache, remote: remote, now: time.Now}
}

// NisaabToday implements NisaabSource. Cache failures are logged and the
// remote answer is still returned.
func (c *cachedNisaab) NisaabToday(ctx context.Context, currency string) (*models.NisaabData, error) {
	currency = models.NormalizeCurrency(currency)
	day := c.now().UTC().Truncate(24 * time.Hour)

	if c.cache != nil {
		data, err := c.cache.Get(ctx, currency, day)
		if err != nil {
			logger.Log.Warn().Err(err).Str("currency", currency).Msg("Failed to read cached nisaab")
		} else if data != nil {
			return data, nil
		}
	}

	data, err := c.remote.NisaabToday(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nisaab: %w", err)
	}
	if data.Currency == "" {
		data.Currency = currency
	}
	if data.Date.IsZero() {
		data.Date = day
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, data); err != nil {
			logger.Log.Warn().Err(err).Str("currency", currency).Msg("Failed to cache nisaab")
		}
	}
	return data, nil
}
