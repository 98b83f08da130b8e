package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// SourceCache marks conversions answered from the local rate cache.
const SourceCache = "cache"

var (
	errNoRemote        = errors.New("no remote converter configured")
	errInvalidCurrency = errors.New("currency must be a 3-letter code")
	errInvalidResult   = errors.New("remote conversion returned a negative amount")
)

// Helper converts amounts, preferring cached rates. It never writes the cache
// and never returns an error; failures surface as StatusUnavailable.
type Helper struct {
	cache  *RateCache
	remote RemoteConverter
}

// NewHelper creates a Helper. Either argument may be nil.
func NewHelper(cache *RateCache, remote RemoteConverter) *Helper {
	return &Helper{cache: cache, remote: remote}
}

// Convert converts amount from one currency to another.
func (h *Helper) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) Conversion {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))

	if from == to || !amount.IsPositive() {
		return Conversion{Status: StatusNotNeeded}
	}
	if !models.IsCurrencyCode(from) || !models.IsCurrencyCode(to) {
		return unavailable(errInvalidCurrency)
	}

	if h.cache != nil {
		if rate, ok := h.cache.Get(from, to); ok {
			return Conversion{
				Status: StatusResolved,
				Amount: models.RoundToCurrency(amount.Mul(rate), to),
				Rate:   rate,
				Source: SourceCache,
			}
		}
	}

	if h.remote == nil {
		return unavailable(errNoRemote)
	}

	quote, err := h.remote.Convert(ctx, amount, from, to)
	if err != nil {
		return unavailable(fmt.Errorf("remote conversion %s->%s: %w", from, to, err))
	}
	if quote.ConvertedAmount.IsNegative() {
		return unavailable(errInvalidResult)
	}

	return Conversion{
		Status:        StatusResolved,
		Amount:        models.RoundToCurrency(quote.ConvertedAmount, to),
		Rate:          quote.Rate,
		Source:        quote.Source,
		EffectiveDate: quote.EffectiveDate,
	}
}

func unavailable(err error) Conversion {
	return Conversion{Status: StatusUnavailable, Err: err}
}
