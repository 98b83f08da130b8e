package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseAssetLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, a *models.Asset)
	}{
		{
			name:  "cash with currency",
			input: "cash 1000 USD",
			check: func(t *testing.T, a *models.Asset) {
				require.Equal(t, models.AssetCash, a.Type)
				require.True(t, a.Amount.Equal(dec("1000")))
				require.Equal(t, "USD", a.Currency)
			},
		},
		{
			name:  "bank without currency uses preferred later",
			input: "Bank 2,500.75",
			check: func(t *testing.T, a *models.Asset) {
				require.Equal(t, models.AssetBank, a.Type)
				require.True(t, a.Amount.Equal(dec("2500.75")))
				require.Empty(t, a.Currency)
			},
		},
		{
			name:  "lowercase currency and description",
			input: "stocks 300 eur brokerage account",
			check: func(t *testing.T, a *models.Asset) {
				require.Equal(t, models.AssetStocks, a.Type)
				require.Equal(t, "EUR", a.Currency)
				require.Equal(t, "brokerage account", a.Description)
			},
		},
		{
			name:  "mixed case word is not a currency",
			input: "business 100 Eur",
			check: func(t *testing.T, a *models.Asset) {
				require.Empty(t, a.Currency)
				require.Equal(t, "Eur", a.Description)
			},
		},
		{
			name:  "gold with price",
			input: "gold 50g @ 75.5 USD",
			check: func(t *testing.T, a *models.Asset) {
				require.Equal(t, models.AssetGold, a.Type)
				require.True(t, a.Weight.Equal(dec("50")))
				require.True(t, a.PricePerGram.Equal(dec("75.5")))
				require.True(t, a.Amount.Equal(dec("3775")))
				require.Equal(t, "USD", a.Currency)
				require.False(t, a.UseMarketPrice)
			},
		},
		{
			name:  "silver with attached @ and spaced unit",
			input: "silver 100 grams @0.9",
			check: func(t *testing.T, a *models.Asset) {
				require.True(t, a.Weight.Equal(dec("100")))
				require.True(t, a.Amount.Equal(dec("90")))
			},
		},
		{
			name:  "gold market price",
			input: "gold 50g market",
			check: func(t *testing.T, a *models.Asset) {
				require.True(t, a.UseMarketPrice)
				require.True(t, a.Amount.IsZero())
			},
		},
		{
			name:  "gold without price defaults to market",
			input: "gold 10",
			check: func(t *testing.T, a *models.Asset) {
				require.True(t, a.UseMarketPrice)
				require.True(t, a.Weight.Equal(dec("10")))
			},
		},
		{
			name:  "livestock",
			input: "livestock 12 sheep @ 150",
			check: func(t *testing.T, a *models.Asset) {
				require.Equal(t, models.AssetLivestock, a.Type)
				require.Equal(t, int64(12), a.Count)
				require.Equal(t, "sheep", a.LivestockType)
				require.True(t, a.Amount.Equal(dec("1800")))
			},
		},
		{
			name:  "custom with title",
			input: "custom 500 EUR Loan to cousin",
			check: func(t *testing.T, a *models.Asset) {
				require.Equal(t, models.AssetCustom, a.Type)
				require.Equal(t, "EUR", a.Currency)
				require.Equal(t, "Loan to cousin", a.Title)
			},
		},
		{
			name:  "farm alias",
			input: "farm 40",
			check: func(t *testing.T, a *models.Asset) {
				require.Equal(t, models.AssetFarmProduce, a.Type)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := ParseAssetLine(tt.input)
			require.NoError(t, err)
			require.NotNil(t, a)
			tt.check(t, a)
		})
	}
}

func TestParseAssetLine_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrUnknownItemType},
		{"unknown type", "yacht 100", ErrUnknownItemType},
		{"missing amount", "cash", ErrInvalidItemAmount},
		{"zero amount", "cash 0", ErrInvalidItemAmount},
		{"negative amount", "cash -5", ErrInvalidItemAmount},
		{"not a number", "cash lots", ErrInvalidItemAmount},
		{"custom without title", "custom 500 EUR", ErrMissingTitle},
		{"gold junk after weight", "gold 50g shiny", ErrInvalidItemAmount},
		{"gold bad price", "gold 50g @ free", ErrInvalidItemAmount},
		{"livestock without value", "livestock 12 sheep", ErrInvalidItemAmount},
		{"livestock fractional count", "livestock 1.5 cows @ 100", ErrInvalidItemAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := ParseAssetLine(tt.input)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, a)
		})
	}
}

func TestParseLiabilityLine(t *testing.T) {
	t.Parallel()

	t.Run("loan without currency", func(t *testing.T) {
		t.Parallel()
		l, err := ParseLiabilityLine("loan 2000")
		require.NoError(t, err)
		require.Equal(t, models.LiabilityLoan, l.Type)
		require.True(t, l.Amount.Equal(dec("2000")))
		require.Empty(t, l.Currency)
	})

	t.Run("credit card alias with currency", func(t *testing.T) {
		t.Parallel()
		l, err := ParseLiabilityLine("card 350.20 SGD visa")
		require.NoError(t, err)
		require.Equal(t, models.LiabilityCreditCard, l.Type)
		require.Equal(t, "SGD", l.Currency)
		require.Equal(t, "visa", l.Description)
	})

	t.Run("custom liability title", func(t *testing.T) {
		t.Parallel()
		l, err := ParseLiabilityLine("custom 500 EUR Owed to cousin")
		require.NoError(t, err)
		require.Equal(t, "Owed to cousin", l.Title)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		_, err := ParseLiabilityLine("cash 100")
		require.ErrorIs(t, err, ErrUnknownItemType)
		_, err = ParseLiabilityLine("rent")
		require.ErrorIs(t, err, ErrInvalidItemAmount)
		_, err = ParseLiabilityLine("custom 10")
		require.ErrorIs(t, err, ErrMissingTitle)
	})
}
