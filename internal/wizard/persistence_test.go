package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func TestStore_DraftRoundTrip(t *testing.T) {
	t.Parallel()

	drafts := newMemDraftStore()
	s := newTestStore(t, Options{Drafts: drafts})
	advance(t, s, 1)
	_, err := s.AddAsset(models.Asset{Type: models.AssetGold, Weight: dec("10"), PricePerGram: dec("70")})
	require.NoError(t, err)
	advance(t, s, 1)
	_, err = s.AddLiability(models.Liability{Type: models.LiabilityRent, Amount: dec("100")})
	require.NoError(t, err)
	s.SetCalculationName("Ramadan 1448")
	require.NoError(t, s.PersistDraft(context.Background()))

	restored := newTestStore(t, Options{Drafts: drafts})
	found, err := restored.LoadDraft(context.Background())
	require.NoError(t, err)
	require.True(t, found)

	v := restored.Snapshot()
	assert.Equal(t, StepLiabilities, v.CurrentStep)
	require.Len(t, v.Form.Assets, 1)
	assert.True(t, v.Form.Assets[0].Amount.Equal(dec("700")))
	require.Len(t, v.Form.Liabilities, 1)
	assert.Equal(t, "Ramadan 1448", v.Form.CalculationName)
}

func TestStore_LoadDraft(t *testing.T) {
	t.Parallel()

	t.Run("no draft", func(t *testing.T) {
		t.Parallel()
		found, err := newTestStore(t, Options{Drafts: newMemDraftStore()}).LoadDraft(context.Background())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("incompatible version is ignored", func(t *testing.T) {
		t.Parallel()
		drafts := newMemDraftStore()
		require.NoError(t, drafts.SaveDraft(context.Background(), 42, Draft{Version: DraftVersion + 1, Step: StepAssets}))

		s := newTestStore(t, Options{Drafts: drafts})
		found, err := s.LoadDraft(context.Background())
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, StepWelcome, s.CurrentStep())
	})

	t.Run("currency change resets conversions", func(t *testing.T) {
		t.Parallel()
		drafts := newMemDraftStore()
		require.NoError(t, drafts.SaveDraft(context.Background(), 42, Draft{
			Version:           DraftVersion,
			Step:              StepAssets,
			PreferredCurrency: "EUR",
			Form: models.FormState{
				Assets:     []models.Asset{{ID: "a", Type: models.AssetCash, Amount: dec("10"), Currency: "EUR", Converted: models.NotNeeded()}},
				NisaabData: &models.NisaabData{Currency: "EUR"},
			},
		}))

		s := newTestStore(t, Options{Drafts: drafts})
		found, err := s.LoadDraft(context.Background())
		require.NoError(t, err)
		require.True(t, found)

		v := s.Snapshot()
		assert.Nil(t, v.Form.NisaabData)
		assert.Equal(t, models.ConversionUnresolved, v.Form.Assets[0].Converted.State)
	})

	t.Run("no draft store", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t, Options{})
		_, err := s.LoadDraft(context.Background())
		require.Error(t, err)
		require.Error(t, s.PersistDraft(context.Background()))
	})

	t.Run("persist failure surfaces", func(t *testing.T) {
		t.Parallel()
		drafts := newMemDraftStore()
		drafts.saveErr = errors.New("disk full")
		err := newTestStore(t, Options{Drafts: drafts}).PersistDraft(context.Background())
		require.ErrorIs(t, err, drafts.saveErr)
	})
}

func TestStore_ResetWizard(t *testing.T) {
	t.Parallel()

	drafts := newMemDraftStore()
	s := newTestStore(t, Options{Drafts: drafts})
	advance(t, s, 1)
	_, err := s.AddAsset(models.Asset{Type: models.AssetCash, Amount: dec("1")})
	require.NoError(t, err)
	require.NoError(t, s.PersistDraft(context.Background()))

	require.NoError(t, s.ResetWizard(context.Background()))
	assert.False(t, drafts.has(42))
	v := s.Snapshot()
	assert.Equal(t, StepWelcome, v.CurrentStep)
	assert.Empty(t, v.Form.Assets)
}

func TestStepText(t *testing.T) {
	t.Parallel()

	for s := StepWelcome; s <= StepSave; s++ {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Step
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var bad Step
	require.Error(t, bad.UnmarshalText([]byte("dashboard")))
	_, err := Step(99).MarshalText()
	require.Error(t, err)
}
