package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/repository"
)

// commonCurrencies are suggested by /setcurrency without arguments.
var commonCurrencies = []string{"USD", "EUR", "GBP", "SAR", "AED", "MYR", "IDR", "PKR", "INR", "SGD", "TRY", "EGP"}

// CurrencyLister lists the currencies the backend can convert.
type CurrencyLister interface {
	SupportedCurrencies(ctx context.Context) ([]appmodels.CurrencyInfo, error)
}

// lookupSupportedCurrency validates code against the backend list, falling
// back to the ISO table when the list is unavailable.
func (b *Bot) lookupSupportedCurrency(ctx context.Context, code string) (appmodels.CurrencyInfo, bool) {
	code = appmodels.NormalizeCurrency(code)
	if !appmodels.IsCurrencyCode(code) {
		return appmodels.CurrencyInfo{}, false
	}

	if b.currencies != nil {
		list, err := b.currencies.SupportedCurrencies(ctx)
		if err == nil && len(list) > 0 {
			i := slices.IndexFunc(list, func(c appmodels.CurrencyInfo) bool {
				return appmodels.NormalizeCurrency(c.Code) == code
			})
			if i < 0 {
				return appmodels.CurrencyInfo{}, false
			}
			return list[i], true
		}
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to list supported currencies, using ISO table")
		}
	}

	return appmodels.LookupCurrency(code)
}

func buildCurrencyListMessage() string {
	var sb strings.Builder
	sb.WriteString("💱 <b>Set Preferred Currency</b>\n\n")
	sb.WriteString("Usage: <code>/setcurrency &lt;code&gt;</code>\n\n")
	sb.WriteString("<b>Common currencies:</b>\n")
	for _, code := range commonCurrencies {
		fmt.Fprintf(&sb, "• <code>%s</code> (%s)\n", code, escapeHTML(appmodels.CurrencySymbol(code)))
	}
	sb.WriteString("\nAny ISO 4217 code supported by the calculator works.")
	return sb.String()
}

// handleSetCurrency handles the /setcurrency command.
func (b *Bot) handleSetCurrency(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSetCurrencyCore(ctx, tgBot, update)
}

// handleSetCurrencyCore is the testable implementation of handleSetCurrency.
func (b *Bot) handleSetCurrencyCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	args := extractCommandArgs(update.Message.Text, "/setcurrency")
	if args == "" {
		b.sendText(ctx, tg, chatID, buildCurrencyListMessage(), nil)
		return
	}

	info, ok := b.lookupSupportedCurrency(ctx, args)
	if !ok {
		b.sendText(ctx, tg, chatID,
			fmt.Sprintf("❌ Unknown currency: <code>%s</code>\n\nUse /setcurrency to see common currencies.", escapeHTML(args)), nil)
		return
	}
	currency := appmodels.NormalizeCurrency(info.Code)

	if err := b.userRepo.UpdatePreferredCurrency(ctx, userID, currency); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(userID)).
			Str("currency", currency).
			Msg("Failed to update preferred currency")
		b.sendText(ctx, tg, chatID, "❌ Failed to update currency. Please try again.", nil)
		return
	}

	if store := b.existingSession(userID); store != nil {
		if err := store.SetPreferredCurrency(currency); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to switch wizard currency")
		} else {
			b.prepareStep(ctx, store)
			b.persistDraft(ctx, store)
		}
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(userID)).Str("currency", currency).Msg("Preferred currency updated")

	b.sendText(ctx, tg, chatID, fmt.Sprintf(
		"✅ Preferred currency set to <b>%s</b> (%s)\n\nTotals and the Nisaab will be shown in this currency. Items in other currencies are converted.",
		currency, escapeHTML(info.Symbol)), nil)
}

// handleShowCurrency handles the /currency command.
func (b *Bot) handleShowCurrency(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleShowCurrencyCore(ctx, tgBot, update)
}

// handleShowCurrencyCore is the testable implementation of handleShowCurrency.
func (b *Bot) handleShowCurrencyCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	currency := b.preferredCurrency(ctx, update.Message.From.ID)

	text := fmt.Sprintf(`💱 <b>Currency Settings</b>

Your preferred currency: <b>%s</b> (%s)

To change it, use:
<code>/setcurrency EUR</code>

You can also give a currency per item:
• <code>cash 500 EUR</code>
• <code>gold 20g @ 250 MYR</code>`, currency, escapeHTML(appmodels.CurrencySymbol(currency)))

	b.sendText(ctx, tg, update.Message.Chat.ID, text, nil)
}
