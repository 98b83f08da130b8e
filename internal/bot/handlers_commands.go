package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Assalamu alaikum%s!

I help you work out the Zakaat due on your wealth.

<b>Quick Start:</b>
• Send /zakat to start a calculation
• Add your assets and liabilities one line at a time
• Pick the Gold or Silver Nisaab and see what is due
• Save the result to find it later with /history

Use /help to see all available commands.`,
		formatGreeting(firstName))

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /start response")
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /start response")
	}
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Calculation:</b>
• <code>/zakat</code> - Start a calculation or resume your draft
• <code>/reset</code> - Discard the current calculation

<b>Adding items:</b>
While on the Assets or Liabilities step, send one item per message:
• <code>cash 1500</code>, <code>bank 12,000 EUR Savings</code>
• <code>gold 85g</code>, <code>silver 600 grams @ 0.9 USD</code>
• <code>livestock 40 sheep @ 150</code>
• <code>loan 2000</code>, <code>card 350 EUR</code>
• <code>custom 500 Loan to a friend</code>
You can also describe your holdings in a sentence.

<b>Currency:</b>
• <code>/currency</code> - Show your preferred currency
• <code>/setcurrency &lt;code&gt;</code> - Set preferred currency (e.g., USD, EUR, MYR)

<b>Saved calculations:</b>
• <code>/history [page]</code> - List saved calculations
• <code>/archive &lt;id&gt;</code> - Archive a calculation
• <code>/complete &lt;id&gt;</code> - Mark a calculation as paid
• <code>/deletecalc &lt;id&gt;</code> - Delete a calculation

<b>Other:</b>
• <code>/help</code> - Show this help message`

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /help response")
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /help response")
	}
}

// handleZakat handles the /zakat command.
func (b *Bot) handleZakat(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleZakatCore(ctx, tgBot, update)
}

// handleZakatCore starts the wizard or resumes the user's draft.
func (b *Bot) handleZakatCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	store, resumed := b.session(ctx, update.Message.From.ID)
	b.prepareStep(ctx, store)

	notice := ""
	if resumed || store.CurrentStep() != wizard.StepWelcome {
		notice = "📝 Continuing your calculation. Use /reset to start over."
	}
	b.showWizard(ctx, tg, update.Message.Chat.ID, store, notice)
}

// handleReset handles the /reset command.
func (b *Bot) handleReset(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleResetCore(ctx, tgBot, update)
}

// handleResetCore clears the wizard and the stored draft.
func (b *Bot) handleResetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	store, _ := b.session(ctx, userID)
	if err := store.ResetWizard(ctx); err != nil {
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Failed to reset wizard")
		b.sendText(ctx, tg, chatID, "❌ Failed to clear your saved draft. Please try again.", nil)
		return
	}

	b.showWizard(ctx, tg, chatID, store, "🗑 Calculation cleared.")
}
