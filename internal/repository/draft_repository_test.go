package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/zakaat-bot/internal/database"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
)

func TestDraftRepository(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	users := NewUserRepository(tx)
	require.NoError(t, users.UpsertUser(ctx, &models.User{ID: 555, Username: "drafter"}))
	repo := NewDraftRepository(tx)

	t.Run("missing draft", func(t *testing.T) {
		d, err := repo.LoadDraft(ctx, 555)
		require.NoError(t, err)
		require.Nil(t, d)
	})

	t.Run("save and load", func(t *testing.T) {
		draft := wizard.Draft{
			Version:           wizard.DraftVersion,
			Step:              wizard.StepLiabilities,
			PreferredCurrency: "USD",
			UpdatedAt:         time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
			Form: models.FormState{
				Assets: []models.Asset{{
					ID:        "a1",
					Type:      models.AssetGold,
					Weight:    decimal.RequireFromString("50"),
					Amount:    decimal.RequireFromString("3775"),
					Currency:  "USD",
					Converted: models.NotNeeded(),
				}},
				NisaabBase: models.NisaabSilver,
			},
		}
		require.NoError(t, repo.SaveDraft(ctx, 555, draft))

		got, err := repo.LoadDraft(ctx, 555)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, wizard.StepLiabilities, got.Step)
		require.Equal(t, models.NisaabSilver, got.Form.NisaabBase)
		require.Len(t, got.Form.Assets, 1)
		require.True(t, got.Form.Assets[0].Amount.Equal(decimal.RequireFromString("3775")))
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, repo.SaveDraft(ctx, 555, wizard.Draft{Version: wizard.DraftVersion, Step: wizard.StepResults}))
		got, err := repo.LoadDraft(ctx, 555)
		require.NoError(t, err)
		require.Equal(t, wizard.StepResults, got.Step)
		require.Empty(t, got.Form.Assets)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteDraft(ctx, 555))
		require.NoError(t, repo.DeleteDraft(ctx, 555))
		got, err := repo.LoadDraft(ctx, 555)
		require.NoError(t, err)
		require.Nil(t, got)
	})
}
