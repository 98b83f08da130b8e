package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/zakaat-bot/internal/database"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// NisaabRepository caches the daily Nisaab snapshot per currency. A snapshot
// never changes once fetched for a given day.
type NisaabRepository struct {
	db database.PGXDB
}

// NewNisaabRepository creates a new NisaabRepository.
func NewNisaabRepository(db database.PGXDB) *NisaabRepository {
	return &NisaabRepository{db: db}
}

// Get returns the snapshot for currency on day, or nil when none is stored.
func (r *NisaabRepository) Get(ctx context.Context, currency string, day time.Time) (*models.NisaabData, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `
		SELECT payload FROM nisaab_snapshots
		WHERE currency = $1 AND snapshot_date = $2
	`, models.NormalizeCurrency(currency), day.Format(time.DateOnly)).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get nisaab snapshot: %w", err)
	}

	var data models.NisaabData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to decode nisaab snapshot: %w", err)
	}
	return &data, nil
}

// Put stores a snapshot keyed by its currency and date. An existing snapshot
// for the same day is kept.
func (r *NisaabRepository) Put(ctx context.Context, data *models.NisaabData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode nisaab snapshot: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO nisaab_snapshots (currency, snapshot_date, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (currency, snapshot_date) DO NOTHING
	`, models.NormalizeCurrency(data.Currency), data.Date.Format(time.DateOnly), payload)
	if err != nil {
		return fmt.Errorf("failed to store nisaab snapshot: %w", err)
	}
	return nil
}
