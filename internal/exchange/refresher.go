package exchange

import (
	"context"
	"errors"
	"fmt"
)

// Refresher loads bulk rates from a RateSource into a RateCache.
type Refresher struct {
	source RateSource
	cache  *RateCache
}

// NewRefresher creates a Refresher.
func NewRefresher(source RateSource, cache *RateCache) *Refresher {
	return &Refresher{source: source, cache: cache}
}

// Refresh fetches the latest rates and replaces the cache contents. On
// failure the existing entries are left untouched.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	if r.source == nil || r.cache == nil {
		return 0, errors.New("rate source and cache are required")
	}

	rates, err := r.source.Rates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rates: %w", err)
	}
	if len(rates) == 0 {
		return 0, errors.New("rate source returned no rates")
	}

	return r.cache.ReplaceAll(rates), nil
}
