package zakat

import (
	"errors"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// ZakatRate is the fixed 2.5% levy.
var ZakatRate = decimal.RequireFromString("0.025")

var (
	// ErrNisaabBaseRequired is returned when no Nisaab base has been chosen.
	ErrNisaabBaseRequired = errors.New("nisaab base is required")
	// ErrNisaabDataRequired is returned when Nisaab values have not been loaded.
	ErrNisaabDataRequired = errors.New("nisaab data is required")
)

// Calculate reduces the items and the chosen Nisaab into a CalculationResult.
// It is pure and idempotent; the only errors report a missing base or data.
func Calculate(
	assets []models.Asset,
	liabilities []models.Liability,
	base models.NisaabBase,
	data *models.NisaabData,
	preferredCurrency string,
) (models.CalculationResult, error) {
	if !base.Valid() {
		return models.CalculationResult{}, ErrNisaabBaseRequired
	}
	if data == nil {
		return models.CalculationResult{}, ErrNisaabDataRequired
	}

	currency := models.NormalizeCurrency(preferredCurrency)
	if currency == "" {
		currency = models.NormalizeCurrency(data.Currency)
	}

	totals := Aggregate(assets, liabilities, currency)
	netWorth := totals.NetWorth()
	threshold := data.Threshold(base)

	result := models.CalculationResult{
		TotalAssets:      totals.Assets,
		TotalLiabilities: totals.Liabilities,
		NetWorth:         netWorth,
		NisaabBase:       base,
		NisaabThreshold:  threshold,
		MeetsNisaab:      netWorth.GreaterThanOrEqual(threshold),
		Currency:         currency,
		AssetBreakdown:   totals.Breakdown,
		UnconvertedItems: totals.Unconverted,
	}

	if result.MeetsNisaab {
		due := models.RoundToCurrency(netWorth.Mul(ZakatRate), currency)
		result.ZakatDue = &due
	}

	return result, nil
}
