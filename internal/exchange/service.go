// Package exchange converts amounts between currencies using a shared rate
// cache with a remote fallback.
package exchange

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// Status describes the outcome of a conversion.
type Status int

const (
	// StatusNotNeeded means no conversion was performed: same currency or a
	// non-positive amount.
	StatusNotNeeded Status = iota
	// StatusResolved means Amount holds the converted value.
	StatusResolved
	// StatusUnavailable means the conversion failed; callers keep showing
	// the original amount.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusNotNeeded:
		return "not_needed"
	case StatusResolved:
		return "resolved"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Conversion is the result of Helper.Convert. Err is kept for logging only.
type Conversion struct {
	Status        Status
	Amount        decimal.Decimal
	Rate          decimal.Decimal
	Source        string
	EffectiveDate time.Time
	Err           error
}

// ConvertedAmount maps the conversion onto an item's tagged converted amount.
func (c Conversion) ConvertedAmount() models.ConvertedAmount {
	switch c.Status {
	case StatusResolved:
		return models.Resolved(c.Amount)
	case StatusNotNeeded:
		return models.NotNeeded()
	default:
		return models.Unavailable()
	}
}

// RemoteConverter converts a single amount over the network.
type RemoteConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (models.ConversionQuote, error)
}

// RateSource returns bulk rates keyed "FROM:TO".
type RateSource interface {
	Rates(ctx context.Context) (map[string]decimal.Decimal, error)
}
