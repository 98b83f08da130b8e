package bot

import (
	"context"

	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
)

// session returns the user's wizard, creating it on first use. A stored
// draft is restored into a new wizard; resumed reports whether that happened.
func (b *Bot) session(ctx context.Context, userID int64) (store *wizard.Store, resumed bool) {
	b.sessionsMu.Lock()
	store, ok := b.sessions[userID]
	b.sessionsMu.Unlock()
	if ok {
		return store, false
	}

	store = wizard.NewStore(userID, b.preferredCurrency(ctx, userID), wizard.Options{
		Converter: b.converter,
		Drafts:    b.drafts,
		Saver:     b.calcs,
		Now:       b.now,
	})

	var found bool
	if b.drafts != nil {
		var err error
		found, err = store.LoadDraft(ctx)
		if err != nil {
			logger.Log.Error().Err(err).
				Str("user_hash", logger.HashUserID(userID)).
				Msg("Failed to load draft")
		}
	}

	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	if existing, ok := b.sessions[userID]; ok {
		return existing, false
	}
	b.sessions[userID] = store
	return store, found
}

// existingSession returns the user's wizard without creating one.
func (b *Bot) existingSession(userID int64) *wizard.Store {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	return b.sessions[userID]
}

// dropSession forgets the user's wizard.
func (b *Bot) dropSession(userID int64) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	delete(b.sessions, userID)
}
