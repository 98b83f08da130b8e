package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func TestGenerateBreakdownChart(t *testing.T) {
	tests := []struct {
		name        string
		breakdown   map[models.AssetType]decimal.Decimal
		expectError bool
	}{
		{
			name: "generates chart with multiple asset types",
			breakdown: map[models.AssetType]decimal.Decimal{
				models.AssetCash: decimal.NewFromInt(1000),
				models.AssetGold: decimal.NewFromInt(3775),
				models.AssetBank: decimal.NewFromInt(2500),
			},
		},
		{
			name: "handles single asset type",
			breakdown: map[models.AssetType]decimal.Decimal{
				models.AssetLivestock: decimal.NewFromInt(1800),
			},
		},
		{
			name: "skips zero entries",
			breakdown: map[models.AssetType]decimal.Decimal{
				models.AssetCash:   decimal.Zero,
				models.AssetStocks: decimal.NewFromInt(10),
			},
		},
		{
			name:        "empty breakdown fails",
			breakdown:   map[models.AssetType]decimal.Decimal{},
			expectError: true,
		},
		{
			name: "only zero entries fails",
			breakdown: map[models.AssetType]decimal.Decimal{
				models.AssetCash: decimal.Zero,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := GenerateBreakdownChart(models.CalculationResult{
				Currency:       "USD",
				AssetBreakdown: tt.breakdown,
			})

			if tt.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotEmpty(t, buf)
			// PNG files start with magic bytes: 89 50 4E 47
			require.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, buf[:4])
		})
	}
}

func TestBreakdownLines(t *testing.T) {
	t.Parallel()

	lines := breakdownLines(models.CalculationResult{
		Currency: "USD",
		AssetBreakdown: map[models.AssetType]decimal.Decimal{
			models.AssetGold: decimal.NewFromInt(5),
			models.AssetCash: decimal.NewFromInt(10),
		},
	})
	require.Equal(t, []string{"• Cash: 10.00 USD", "• Gold: 5.00 USD"}, lines)
}

func TestChartFilename(t *testing.T) {
	t.Parallel()
	require.Equal(t, "zakaat_breakdown_2026-10-16.png", chartFilename("2026-10-16"))
}
