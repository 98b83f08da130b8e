// Package bot renders the Zakaat wizard as a Telegram conversation.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/yelinaung/zakaat-bot/internal/api"
	"gitlab.com/yelinaung/zakaat-bot/internal/config"
	"gitlab.com/yelinaung/zakaat-bot/internal/exchange"
	"gitlab.com/yelinaung/zakaat-bot/internal/gemini"
	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/repository"
	"gitlab.com/yelinaung/zakaat-bot/internal/telemetry"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
)

// UserStore keeps Telegram users and their preferred currency.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetPreferredCurrency(ctx context.Context, userID int64) (string, error)
	UpdatePreferredCurrency(ctx context.Context, userID int64, currency string) error
}

// NisaabSource returns today's Nisaab values in a currency.
type NisaabSource interface {
	NisaabToday(ctx context.Context, currency string) (*models.NisaabData, error)
}

// CalculationsAPI manages saved calculations on the backend.
type CalculationsAPI interface {
	wizard.CalculationSaver
	ListCalculations(ctx context.Context, opts api.ListOptions) (api.CalculationPage, error)
	UpdateCalculationStatus(ctx context.Context, id string, status models.CalculationStatus) (*models.WealthCalculation, error)
	DeleteCalculation(ctx context.Context, id string) error
}

// HoldingsParser reads free-text holdings descriptions.
type HoldingsParser interface {
	ParseHoldings(ctx context.Context, text, preferredCurrency string) (*gemini.Holdings, error)
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot        *bot.Bot
	cfg        *config.Config
	userRepo   UserStore
	drafts     wizard.DraftStore
	converter  wizard.Converter
	nisaab     NisaabSource
	calcs      CalculationsAPI
	currencies CurrencyLister
	holdings   HoldingsParser
	refresher  RateRefresher
	metrics    *telemetry.Metrics
	now        func() time.Time

	sessionsMu sync.Mutex
	sessions   map[int64]*wizard.Store
}

// New creates a new Bot instance.
func New(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*Bot, error) {
	client := api.NewClient(cfg.ZakaatAPIBaseURL, cfg.ZakaatAPIToken, cfg.ZakaatAPITimeout)
	rates := exchange.NewRateCache(cfg.RateCacheTTL)

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	b := &Bot{
		cfg:        cfg,
		userRepo:   repository.NewUserRepository(pool),
		drafts:     repository.NewDraftRepository(pool),
		converter:  exchange.NewHelper(rates, client),
		nisaab:     newCachedNisaab(repository.NewNisaabRepository(pool), client),
		calcs:      client,
		currencies: client,
		refresher:  exchange.NewRefresher(client, rates),
		metrics:    metrics,
		now:        time.Now,
		sessions:   make(map[int64]*wizard.Store),
	}

	if cfg.GeminiAPIKey != "" {
		gc, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Gemini unavailable, free-text holdings parsing disabled")
		} else {
			b.holdings = gc
		}
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start begins polling for updates and refreshing exchange rates.
func (b *Bot) Start(ctx context.Context) {
	go b.startRateRefreshLoop(ctx)

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/zakat", bot.MatchTypePrefix, b.handleZakat)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypePrefix, b.handleReset)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/currency", bot.MatchTypePrefix, b.handleShowCurrency)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/setcurrency", bot.MatchTypePrefix, b.handleSetCurrency)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, b.handleHistory)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/archive", bot.MatchTypePrefix, b.handleArchive)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/complete", bot.MatchTypePrefix, b.handleComplete)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/deletecalc", bot.MatchTypePrefix, b.handleDeleteCalculation)

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackPrefix, bot.MatchTypePrefix, b.handleWizardCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, historyCallbackPrefix, bot.MatchTypePrefix, b.handleHistoryCallback)
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.authorize(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// authorize reports whether the update may be handled and registers the
// sender. Rejected senders get a short notice.
func (b *Bot) authorize(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if !b.cfg.IsUserWhitelisted(userID, username) {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return false
	}

	if err := b.ensureUserRegistered(ctx, update); err != nil {
		logger.Log.Error().
			Str("user_hash", logger.HashUserID(userID)).
			Err(err).
			Msg("Failed to register user")
	}
	return true
}

// logUserAction logs the user's input without its content.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
			Str("text", logger.SanitizeText(update.Message.Text)).
			Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	if update.EditedMessage != nil && update.EditedMessage.From != nil {
		return update.EditedMessage.From.ID
	}
	return 0
}

// ensureUserRegistered creates or updates the user record.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	var from *tgmodels.User

	switch {
	case update.Message != nil && update.Message.From != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	}
	if from == nil || b.userRepo == nil {
		return nil
	}

	user := &models.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := b.userRepo.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// preferredCurrency returns the user's stored currency or the configured default.
func (b *Bot) preferredCurrency(ctx context.Context, userID int64) string {
	if b.userRepo != nil {
		currency, err := b.userRepo.GetPreferredCurrency(ctx, userID)
		if err == nil && currency != "" {
			return currency
		}
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			logger.Log.Error().Err(err).Str("user_hash", logger.HashUserID(userID)).Msg("Failed to get preferred currency")
		}
	}
	if b.cfg != nil && b.cfg.DefaultCurrency != "" {
		return b.cfg.DefaultCurrency
	}
	return models.DefaultCurrency
}

// defaultHandler handles unrecognized messages as wizard input.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

// defaultHandlerCore is the testable implementation of defaultHandler.
func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	logger.Log.Debug().
		Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
		Msg("Default handler triggered")

	if b.handleWizardTextCore(ctx, tg, update) {
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /zakat to start a calculation or /help to see available commands.",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
