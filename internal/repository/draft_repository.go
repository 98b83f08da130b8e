package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/zakaat-bot/internal/database"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
)

// DraftRepository stores one wizard draft per user as JSONB.
type DraftRepository struct {
	db database.PGXDB
}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository(db database.PGXDB) *DraftRepository {
	return &DraftRepository{db: db}
}

var _ wizard.DraftStore = (*DraftRepository)(nil)

// SaveDraft overwrites the user's draft.
func (r *DraftRepository) SaveDraft(ctx context.Context, userID int64, draft wizard.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO wizard_drafts (user_id, version, step, payload, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			version = EXCLUDED.version,
			step = EXCLUDED.step,
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`, userID, draft.Version, draft.Step.String(), payload)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// LoadDraft returns the user's draft, or nil when there is none.
func (r *DraftRepository) LoadDraft(ctx context.Context, userID int64) (*wizard.Draft, error) {
	var (
		version int
		payload []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT version, payload FROM wizard_drafts WHERE user_id = $1
	`, userID).Scan(&version, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var draft wizard.Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	draft.Version = version
	return &draft, nil
}

// DeleteDraft removes the user's draft. Deleting a missing draft is not an error.
func (r *DraftRepository) DeleteDraft(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM wizard_drafts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
