package exchange

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultRateTTL     = 12 * time.Hour
	maxCleanupInterval = 5 * time.Minute
)

type cachedRateEntry struct {
	Rate      decimal.Decimal
	ExpiresAt time.Time
}

// RateCache is the process-wide exchange rate cache. Entries are keyed by the
// normalized "FROM:TO" pair and expire after the configured TTL.
type RateCache struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.RWMutex
	rates       map[string]cachedRateEntry
	lastCleanup time.Time
}

// NewRateCache returns an empty cache. A non-positive ttl falls back to 12h.
func NewRateCache(ttl time.Duration) *RateCache {
	if ttl <= 0 {
		ttl = defaultRateTTL
	}
	return &RateCache{
		ttl:   ttl,
		now:   time.Now,
		rates: make(map[string]cachedRateEntry),
	}
}

// PairKey returns the cache key for an ordered currency pair.
func PairKey(fromCurrency, toCurrency string) string {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	return from + ":" + to
}

// Get returns a non-expired rate for the pair.
func (c *RateCache) Get(fromCurrency, toCurrency string) (decimal.Decimal, bool) {
	key := PairKey(fromCurrency, toCurrency)

	c.mu.RLock()
	entry, ok := c.rates[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.ExpiresAt) {
		return decimal.Zero, false
	}
	return entry.Rate, true
}

// Put stores a single rate. Non-positive rates are ignored.
func (c *RateCache) Put(fromCurrency, toCurrency string, rate decimal.Decimal) {
	if !rate.IsPositive() {
		return
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[PairKey(fromCurrency, toCurrency)] = cachedRateEntry{Rate: rate, ExpiresAt: now.Add(c.ttl)}
	c.cleanupExpiredLocked(now)
}

// ReplaceAll swaps the cache contents for a bulk "latest rates" load. Keys
// must be "FROM:TO"; malformed keys and non-positive rates are skipped.
// It returns the number of rates stored.
func (c *RateCache) ReplaceAll(rates map[string]decimal.Decimal) int {
	now := c.now()
	fresh := make(map[string]cachedRateEntry, len(rates))
	for key, rate := range rates {
		from, to, ok := strings.Cut(key, ":")
		if !ok || len(strings.TrimSpace(from)) != 3 || len(strings.TrimSpace(to)) != 3 || !rate.IsPositive() {
			continue
		}
		fresh[PairKey(from, to)] = cachedRateEntry{Rate: rate, ExpiresAt: now.Add(c.ttl)}
	}

	c.mu.Lock()
	c.rates = fresh
	c.lastCleanup = now
	c.mu.Unlock()

	return len(fresh)
}

// Len returns the number of entries, expired ones included until cleanup.
func (c *RateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rates)
}

func (c *RateCache) cleanupExpiredLocked(now time.Time) {
	interval := min(c.ttl, maxCleanupInterval)
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < interval {
		return
	}
	for pair, entry := range c.rates {
		if !now.Before(entry.ExpiresAt) {
			delete(c.rates, pair)
		}
	}
	c.lastCleanup = now
}
