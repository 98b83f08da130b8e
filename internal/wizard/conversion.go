package wizard

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/exchange"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// Side tells assets and liabilities apart.
type Side string

const (
	SideAsset     Side = "asset"
	SideLiability Side = "liability"
)

// ItemRef identifies an asset or liability.
type ItemRef struct {
	Side Side
	ID   string
}

func (r ItemRef) key() string {
	if r.Side == SideLiability {
		return liabilityKey(r.ID)
	}
	return assetKey(r.ID)
}

var errNoConverter = errors.New("no converter configured")

// PendingConversions lists items whose conversion has not resolved yet.
func (s *Store) PendingConversions() []ItemRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ItemRef
	for _, a := range s.form.Assets {
		if a.Converted.State == models.ConversionUnresolved {
			out = append(out, ItemRef{Side: SideAsset, ID: a.ID})
		}
	}
	for _, l := range s.form.Liabilities {
		if l.Converted.State == models.ConversionUnresolved {
			out = append(out, ItemRef{Side: SideLiability, ID: l.ID})
		}
	}
	return out
}

// lookupLocked returns pointers into the form for the referenced item.
func (s *Store) lookupLocked(ref ItemRef) (amount decimal.Decimal, currency string, converted *models.ConvertedAmount, ok bool) {
	switch ref.Side {
	case SideAsset:
		if i := s.findAsset(ref.ID); i >= 0 {
			a := &s.form.Assets[i]
			return a.Amount, a.Currency, &a.Converted, true
		}
	case SideLiability:
		if i := s.findLiability(ref.ID); i >= 0 {
			l := &s.form.Liabilities[i]
			return l.Amount, l.Currency, &l.Converted, true
		}
	}
	return decimal.Zero, "", nil, false
}

// RequestConversion converts one item into the preferred currency. The lock
// is released during the network call; the result is applied only when no
// newer request, edit or removal happened meanwhile. applied reports whether
// the item was updated.
func (s *Store) RequestConversion(ctx context.Context, ref ItemRef) (conv exchange.Conversion, applied bool, err error) {
	s.mu.Lock()
	amount, currency, converted, ok := s.lookupLocked(ref)
	if !ok {
		s.mu.Unlock()
		return exchange.Conversion{}, false, ErrItemNotFound
	}
	preferred := s.preferred
	key := ref.key()
	s.generations[key]++
	gen := s.generations[key]

	if models.NormalizeCurrency(currency) == preferred {
		*converted = models.NotNeeded()
		s.mu.Unlock()
		return exchange.Conversion{Status: exchange.StatusNotNeeded}, true, nil
	}
	*converted = models.Unresolved()
	s.mu.Unlock()

	if s.converter == nil {
		conv = exchange.Conversion{Status: exchange.StatusUnavailable, Err: errNoConverter}
	} else {
		conv = s.converter.Convert(ctx, amount, currency, preferred)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[key] != gen {
		return conv, false, nil
	}
	_, _, converted, ok = s.lookupLocked(ref)
	if !ok {
		return conv, false, nil
	}
	*converted = conv.ConvertedAmount()
	s.recalculateIfShowing()
	return conv, true, nil
}

// ConversionSummary counts the outcomes of ConvertPending.
type ConversionSummary struct {
	Resolved    int
	Unavailable int
	Discarded   int
}

// ConvertPending requests a conversion for every unresolved item.
func (s *Store) ConvertPending(ctx context.Context) ConversionSummary {
	var sum ConversionSummary
	for _, ref := range s.PendingConversions() {
		conv, applied, err := s.RequestConversion(ctx, ref)
		switch {
		case err != nil || !applied:
			sum.Discarded++
		case conv.Status == exchange.StatusUnavailable:
			sum.Unavailable++
		default:
			sum.Resolved++
		}
	}
	return sum
}
