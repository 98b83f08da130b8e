// Package zakat holds the pure calculation, validation and Nisaab
// recommendation engines. Nothing here performs I/O.
package zakat

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// Totals is the aggregation of a set of assets and liabilities in the
// preferred currency.
type Totals struct {
	Assets      decimal.Decimal
	Liabilities decimal.Decimal
	Breakdown   map[models.AssetType]decimal.Decimal
	// Unconverted counts foreign-currency items that contributed their raw amount.
	Unconverted int
}

// NetWorth is assets minus liabilities. It may be negative.
func (t Totals) NetWorth() decimal.Decimal {
	return t.Assets.Sub(t.Liabilities)
}

// contribution resolves the value an item adds to the totals. A resolved
// conversion wins; otherwise the raw amount is used and flagged when the
// item is in a foreign currency.
func contribution(amount decimal.Decimal, currency string, converted models.ConvertedAmount, preferred string) (decimal.Decimal, bool) {
	if v, ok := converted.Value(); ok {
		return v, false
	}
	raw := preferred != "" && models.NormalizeCurrency(currency) != models.NormalizeCurrency(preferred)
	return amount, raw
}

// Aggregate sums asset and liability contributions.
func Aggregate(assets []models.Asset, liabilities []models.Liability, preferred string) Totals {
	t := Totals{
		Assets:      decimal.Zero,
		Liabilities: decimal.Zero,
		Breakdown:   make(map[models.AssetType]decimal.Decimal),
	}

	for i := range assets {
		v, raw := contribution(assets[i].Amount, assets[i].Currency, assets[i].Converted, preferred)
		if raw {
			t.Unconverted++
		}
		t.Assets = t.Assets.Add(v)
		t.Breakdown[assets[i].Type] = t.Breakdown[assets[i].Type].Add(v)
	}

	for i := range liabilities {
		v, raw := contribution(liabilities[i].Amount, liabilities[i].Currency, liabilities[i].Converted, preferred)
		if raw {
			t.Unconverted++
		}
		t.Liabilities = t.Liabilities.Add(v)
	}

	return t
}
