package zakat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
	"pgregory.net/rapid"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func cash(id, amount, currency string) models.Asset {
	return models.Asset{
		ID:        id,
		Type:      models.AssetCash,
		Amount:    dec(amount),
		Currency:  currency,
		Converted: models.ConversionFor(currency, "USD"),
	}
}

func usdNisaab(gold, silver string) *models.NisaabData {
	return &models.NisaabData{
		GoldNisaabValue:   dec(gold),
		SilverNisaabValue: dec(silver),
		Currency:          "USD",
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	t.Run("gold qualifying scenario", func(t *testing.T) {
		t.Parallel()
		res, err := Calculate(
			[]models.Asset{cash("a1", "10000", "USD")},
			nil,
			models.NisaabGold,
			usdNisaab("5000", "400"),
			"USD",
		)
		require.NoError(t, err)
		assert.True(t, res.NetWorth.Equal(dec("10000")))
		assert.True(t, res.MeetsNisaab)
		require.NotNil(t, res.ZakatDue)
		assert.True(t, res.ZakatDue.Equal(dec("250")))
		assert.True(t, res.NisaabThreshold.Equal(dec("5000")))
		assert.Equal(t, "USD", res.Currency)
	})

	t.Run("below threshold has no zakat due", func(t *testing.T) {
		t.Parallel()
		res, err := Calculate(
			[]models.Asset{cash("a1", "300", "USD")},
			nil,
			models.NisaabSilver,
			usdNisaab("5000", "400"),
			"USD",
		)
		require.NoError(t, err)
		assert.False(t, res.MeetsNisaab)
		assert.Nil(t, res.ZakatDue)
	})

	t.Run("net worth is not clamped", func(t *testing.T) {
		t.Parallel()
		res, err := Calculate(
			[]models.Asset{cash("a1", "100", "USD")},
			[]models.Liability{{ID: "l1", Type: models.LiabilityLoan, Amount: dec("250"), Currency: "USD", Converted: models.NotNeeded()}},
			models.NisaabGold,
			usdNisaab("5000", "400"),
			"USD",
		)
		require.NoError(t, err)
		assert.True(t, res.NetWorth.Equal(dec("-150")))
		assert.True(t, res.TotalLiabilities.Equal(dec("250")))
	})

	t.Run("resolved conversion wins over raw amount", func(t *testing.T) {
		t.Parallel()
		a := cash("a1", "100", "EUR")
		a.Converted = models.Resolved(dec("108.5"))
		res, err := Calculate([]models.Asset{a}, nil, models.NisaabGold, usdNisaab("5000", "400"), "USD")
		require.NoError(t, err)
		assert.True(t, res.TotalAssets.Equal(dec("108.5")))
		assert.Zero(t, res.UnconvertedItems)
	})

	t.Run("unresolved foreign amount counts raw and is flagged", func(t *testing.T) {
		t.Parallel()
		a := cash("a1", "100", "EUR")
		b := cash("a2", "50", "GBP")
		b.Converted = models.Unavailable()
		res, err := Calculate([]models.Asset{a, b}, nil, models.NisaabGold, usdNisaab("5000", "400"), "USD")
		require.NoError(t, err)
		assert.True(t, res.TotalAssets.Equal(dec("150")))
		assert.Equal(t, 2, res.UnconvertedItems)
	})

	t.Run("breakdown per asset type", func(t *testing.T) {
		t.Parallel()
		gold := models.Asset{ID: "g", Type: models.AssetGold, Weight: dec("10"), PricePerGram: dec("70"), Currency: "USD", Converted: models.NotNeeded()}
		gold.RecomputeAmount()
		res, err := Calculate(
			[]models.Asset{cash("a", "100", "USD"), cash("b", "50", "USD"), gold},
			nil, models.NisaabGold, usdNisaab("5000", "400"), "USD",
		)
		require.NoError(t, err)
		assert.True(t, res.AssetBreakdown[models.AssetCash].Equal(dec("150")))
		assert.True(t, res.AssetBreakdown[models.AssetGold].Equal(dec("700")))
	})

	t.Run("zakat rounds to currency precision", func(t *testing.T) {
		t.Parallel()
		data := &models.NisaabData{GoldNisaabValue: dec("1"), SilverNisaabValue: dec("1"), Currency: "JPY"}
		a := models.Asset{ID: "a", Type: models.AssetCash, Amount: dec("1001"), Currency: "JPY", Converted: models.NotNeeded()}
		res, err := Calculate([]models.Asset{a}, nil, models.NisaabGold, data, "JPY")
		require.NoError(t, err)
		require.NotNil(t, res.ZakatDue)
		assert.True(t, res.ZakatDue.Equal(dec("25")), res.ZakatDue.String())
	})

	t.Run("missing base or data is deferred", func(t *testing.T) {
		t.Parallel()
		_, err := Calculate(nil, nil, "", usdNisaab("1", "1"), "USD")
		require.ErrorIs(t, err, ErrNisaabBaseRequired)

		_, err = Calculate(nil, nil, models.NisaabGold, nil, "USD")
		require.ErrorIs(t, err, ErrNisaabDataRequired)
	})
}

func genAssets(t *rapid.T) []models.Asset {
	n := rapid.IntRange(0, 8).Draw(t, "n")
	out := make([]models.Asset, 0, n)
	for i := range n {
		cents := rapid.Int64Range(1, 10_000_000).Draw(t, "cents")
		out = append(out, models.Asset{
			ID:        string(rune('a' + i)),
			Type:      models.AssetCash,
			Amount:    decimal.New(cents, -2),
			Currency:  "USD",
			Converted: models.NotNeeded(),
		})
	}
	return out
}

func TestCalculateIdempotentProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		assets := genAssets(t)
		base := rapid.SampledFrom([]models.NisaabBase{models.NisaabGold, models.NisaabSilver}).Draw(t, "base")
		data := usdNisaab("5000", "400")

		first, err := Calculate(assets, nil, base, data, "USD")
		require.NoError(t, err)
		second, err := Calculate(assets, nil, base, data, "USD")
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}

func TestThresholdBoundaryProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 1_000_000_000).Draw(t, "cents")
		threshold := decimal.New(cents, -2)
		data := &models.NisaabData{GoldNisaabValue: threshold, SilverNisaabValue: threshold, Currency: "USD"}
		assets := []models.Asset{{ID: "a", Type: models.AssetCash, Amount: threshold, Currency: "USD", Converted: models.NotNeeded()}}

		res, err := Calculate(assets, nil, models.NisaabGold, data, "USD")
		require.NoError(t, err)
		require.True(t, res.NetWorth.Equal(res.NisaabThreshold))
		require.True(t, res.MeetsNisaab)
	})
}

func TestZakatRateProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		assets := genAssets(t)
		res, err := Calculate(assets, nil, models.NisaabGold, usdNisaab("0", "0"), "USD")
		require.NoError(t, err)
		require.True(t, res.MeetsNisaab)
		require.NotNil(t, res.ZakatDue)
		require.True(t, res.ZakatDue.Equal(res.NetWorth.Mul(dec("0.025")).Round(2)))
	})
}
