package zakat

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// Recommendation is advisory; the user may always pick the other base.
type Recommendation struct {
	Recommended models.NisaabBase
	Reason      string
	NetWorth    decimal.Decimal
}

// Reasons returned by Recommend.
const (
	ReasonDataUnavailable = "Nisaab data unavailable; Gold is the standard baseline."
	ReasonGoldMet         = "Your net worth meets the Gold Nisaab, the conservative and scholarly-preferred standard."
	ReasonSilverOnly      = "Your net worth qualifies under the lower Silver Nisaab but not Gold; choosing Gold would wrongly suggest no Zakaat is due."
	ReasonNeitherMet      = "Your net worth is below both Nisaab values (neither threshold met); Gold is the standard baseline."
)

// Recommend suggests a Nisaab base for the given items. Net worth uses the
// same aggregation as Calculate, in the Nisaab data's currency.
func Recommend(assets []models.Asset, liabilities []models.Liability, data *models.NisaabData) Recommendation {
	if data == nil {
		return Recommendation{Recommended: models.NisaabGold, Reason: ReasonDataUnavailable}
	}

	netWorth := Aggregate(assets, liabilities, data.Currency).NetWorth()
	rec := Recommendation{NetWorth: netWorth}

	switch {
	case netWorth.GreaterThanOrEqual(data.GoldNisaabValue):
		rec.Recommended = models.NisaabGold
		rec.Reason = ReasonGoldMet
	case netWorth.GreaterThanOrEqual(data.SilverNisaabValue):
		rec.Recommended = models.NisaabSilver
		rec.Reason = ReasonSilverOnly
	default:
		rec.Recommended = models.NisaabGold
		rec.Reason = ReasonNeitherMet
	}

	return rec
}
