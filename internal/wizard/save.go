package wizard

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// SaveCalculation posts the finished calculation. On success the wizard and
// its draft are cleared; on failure the state is kept for a retry and the
// error is available through Snapshot.
func (s *Store) SaveCalculation(ctx context.Context) (*models.WealthCalculation, error) {
	if s.saver == nil {
		return nil, ErrNoSaver
	}

	s.mu.Lock()
	if s.isSaving {
		s.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	if s.result == nil {
		if _, err := s.calculateLocked(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	req := s.buildRequestLocked()
	s.isSaving = true
	s.saveErr = nil
	s.mu.Unlock()

	saved, err := s.saver.CreateCalculation(ctx, req)

	s.mu.Lock()
	s.isSaving = false
	if err != nil {
		s.saveErr = err
		s.mu.Unlock()
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(s.userID)).
			Msg("Failed to save calculation")
		return nil, fmt.Errorf("failed to save calculation: %w", err)
	}
	s.resetLocked()
	s.mu.Unlock()

	if s.drafts != nil {
		if err := s.drafts.DeleteDraft(ctx, s.userID); err != nil {
			logger.Log.Warn().Err(err).
				Str("user_hash", logger.HashUserID(s.userID)).
				Msg("Failed to delete draft after save")
		}
	}
	return saved, nil
}

func (s *Store) buildRequestLocked() models.CreateCalculationRequest {
	r := s.result
	name := strings.TrimSpace(s.form.CalculationName)
	if name == "" {
		name = "Zakaat " + s.now().Format("2006-01-02")
	}

	req := models.CreateCalculationRequest{
		Name:                    name,
		Assets:                  append([]models.Asset(nil), s.form.Assets...),
		Liabilities:             append([]models.Liability(nil), s.form.Liabilities...),
		NisaabBase:              r.NisaabBase,
		NisaabThreshold:         r.NisaabThreshold,
		Currency:                r.Currency,
		TotalAssets:             r.TotalAssets,
		TotalLiabilities:        r.TotalLiabilities,
		NetWorth:                r.NetWorth,
		MeetsNisaab:             r.MeetsNisaab,
		NotificationPreferences: s.form.NotificationPreferences,
	}
	if r.ZakatDue != nil {
		due := *r.ZakatDue
		req.ZakatDue = &due
	}
	return req
}
