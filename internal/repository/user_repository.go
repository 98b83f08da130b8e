// Package repository implements PostgreSQL persistence for users, wizard
// drafts and cached Nisaab snapshots.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/zakaat-bot/internal/database"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// ErrUserNotFound is returned when no user row matches.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser creates or updates a user. The preferred currency is left
// untouched for existing users.
func (r *UserRepository) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
	`, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their Telegram ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
			preferred_currency, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName,
		&user.PreferredCurrency, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetPreferredCurrency returns the user's preferred currency.
func (r *UserRepository) GetPreferredCurrency(ctx context.Context, userID int64) (string, error) {
	var currency string
	err := r.db.QueryRow(ctx, `SELECT preferred_currency FROM users WHERE id = $1`, userID).Scan(&currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get preferred currency: %w", err)
	}
	return currency, nil
}

// UpdatePreferredCurrency stores a new preferred currency.
func (r *UserRepository) UpdatePreferredCurrency(ctx context.Context, userID int64, currency string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET preferred_currency = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, models.NormalizeCurrency(currency))
	if err != nil {
		return fmt.Errorf("failed to update preferred currency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
