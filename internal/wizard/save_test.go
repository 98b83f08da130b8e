package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func readyToSave(t *testing.T, opts Options) *Store {
	t.Helper()
	s := newTestStore(t, opts)
	advance(t, s, 1)
	_, err := s.AddAsset(models.Asset{Type: models.AssetCash, Amount: dec("10000")})
	require.NoError(t, err)
	advance(t, s, 2)
	require.NoError(t, s.SetNisaabBase(models.NisaabGold))
	require.NoError(t, s.SetNisaabData(usdNisaab()))
	advance(t, s, 2)
	require.Equal(t, StepSave, s.CurrentStep())
	return s
}

func TestStore_SaveCalculation(t *testing.T) {
	t.Parallel()

	t.Run("success clears state and draft", func(t *testing.T) {
		t.Parallel()
		drafts := newMemDraftStore()
		saver := &fakeSaver{}
		s := readyToSave(t, Options{
			Drafts: drafts,
			Saver:  saver,
			Now:    func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) },
		})
		require.NoError(t, s.PersistDraft(context.Background()))

		saved, err := s.SaveCalculation(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "calc-1", saved.ID)

		require.Len(t, saver.reqs, 1)
		req := saver.reqs[0]
		assert.Equal(t, "Zakaat 2026-10-16", req.Name)
		assert.True(t, req.NetWorth.Equal(dec("10000")))
		require.NotNil(t, req.ZakatDue)
		assert.True(t, req.ZakatDue.Equal(dec("250")))
		assert.Equal(t, models.NisaabGold, req.NisaabBase)

		assert.False(t, drafts.has(42))
		v := s.Snapshot()
		assert.Equal(t, StepWelcome, v.CurrentStep)
		assert.Empty(t, v.Form.Assets)
		assert.False(t, v.IsSaving)
	})

	t.Run("failure keeps draft for retry", func(t *testing.T) {
		t.Parallel()
		drafts := newMemDraftStore()
		saver := &fakeSaver{err: errors.New("503")}
		s := readyToSave(t, Options{Drafts: drafts, Saver: saver})
		s.SetCalculationName("Mine")
		require.NoError(t, s.PersistDraft(context.Background()))

		_, err := s.SaveCalculation(context.Background())
		require.ErrorIs(t, err, saver.err)

		assert.True(t, drafts.has(42))
		v := s.Snapshot()
		assert.Equal(t, StepSave, v.CurrentStep)
		assert.Len(t, v.Form.Assets, 1)
		require.ErrorIs(t, v.SaveError, saver.err)
		assert.Equal(t, "Mine", saver.reqs[0].Name)

		saver.err = nil
		_, err = s.SaveCalculation(context.Background())
		require.NoError(t, err)
		assert.NoError(t, s.Snapshot().SaveError)
	})

	t.Run("pending result", func(t *testing.T) {
		t.Parallel()
		s := newTestStore(t, Options{Saver: &fakeSaver{}})
		_, err := s.SaveCalculation(context.Background())
		require.ErrorIs(t, err, ErrResultPending)
	})

	t.Run("no saver", func(t *testing.T) {
		t.Parallel()
		_, err := newTestStore(t, Options{}).SaveCalculation(context.Background())
		require.ErrorIs(t, err, ErrNoSaver)
	})
}
