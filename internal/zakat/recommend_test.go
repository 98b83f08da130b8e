package zakat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func TestRecommend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		assets      []models.Asset
		liabilities []models.Liability
		data        *models.NisaabData
		want        models.NisaabBase
		reason      string
	}{
		{
			name:   "gold met",
			assets: []models.Asset{cash("a", "10000", "USD")},
			data:   usdNisaab("5000", "400"),
			want:   models.NisaabGold,
			reason: ReasonGoldMet,
		},
		{
			name:   "silver only",
			assets: []models.Asset{cash("a", "450", "USD")},
			data:   usdNisaab("5000", "400"),
			want:   models.NisaabSilver,
			reason: ReasonSilverOnly,
		},
		{
			name:   "below both thresholds",
			assets: []models.Asset{cash("a", "300", "USD")},
			data:   usdNisaab("5000", "400"),
			want:   models.NisaabGold,
			reason: ReasonNeitherMet,
		},
		{
			name:        "negative net worth",
			assets:      []models.Asset{cash("a", "100", "USD")},
			liabilities: []models.Liability{{ID: "l", Type: models.LiabilityLoan, Amount: dec("500"), Currency: "USD"}},
			data:        usdNisaab("5000", "400"),
			want:        models.NisaabGold,
			reason:      ReasonNeitherMet,
		},
		{
			name:   "no nisaab data",
			want:   models.NisaabGold,
			reason: ReasonDataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Recommend(tt.assets, tt.liabilities, tt.data)
			assert.Equal(t, tt.want, got.Recommended)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}

	assert.Contains(t, ReasonNeitherMet, "neither threshold met")
}
