package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/zakat"
)

// DraftVersion is bumped whenever the Draft layout changes incompatibly.
const DraftVersion = 1

// Draft is the persisted snapshot of an in-progress wizard. Drafts assume a
// single writer on a single device: saving overwrites, nothing is merged.
type Draft struct {
	Version           int              `json:"version"`
	Step              Step             `json:"step"`
	Form              models.FormState `json:"form"`
	PreferredCurrency string           `json:"preferredCurrency"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

var errNoDraftStore = errors.New("no draft store configured")

// PersistDraft writes the current state as the user's draft.
func (s *Store) PersistDraft(ctx context.Context) error {
	if s.drafts == nil {
		return errNoDraftStore
	}

	s.mu.Lock()
	d := Draft{
		Version:           DraftVersion,
		Step:              s.step,
		Form:              s.form.Clone(),
		PreferredCurrency: s.preferred,
		UpdatedAt:         s.now().UTC(),
	}
	s.mu.Unlock()

	if err := s.drafts.SaveDraft(ctx, s.userID, d); err != nil {
		return fmt.Errorf("failed to persist draft: %w", err)
	}
	return nil
}

// LoadDraft restores the user's draft, if any. found is false when there is
// no draft or the stored draft has an unsupported version.
func (s *Store) LoadDraft(ctx context.Context) (found bool, err error) {
	if s.drafts == nil {
		return false, errNoDraftStore
	}

	d, err := s.drafts.LoadDraft(ctx, s.userID)
	if err != nil {
		return false, fmt.Errorf("failed to load draft: %w", err)
	}
	if d == nil {
		return false, nil
	}
	if d.Version != DraftVersion || !d.Step.Valid() {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(s.userID)).
			Int("version", d.Version).
			Msg("Ignoring incompatible wizard draft")
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.step = d.Step
	s.form = d.Form.Clone()

	draftCurrency := models.NormalizeCurrency(d.PreferredCurrency)
	for i := range s.form.Assets {
		a := &s.form.Assets[i]
		before := a.Amount
		s.normalizeAsset(a)
		if !a.Amount.Equal(before) {
			s.afterAmountChange(assetKey(a.ID), &a.Converted, a.Currency)
		}
	}
	if draftCurrency != s.preferred {
		s.resetConversionsLocked()
	}

	s.report = zakat.Validate(s.form.Assets, s.form.Liabilities)
	if s.step >= StepResults {
		_, _ = s.calculateLocked()
	}
	return true, nil
}
