package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/api"
	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/zakaat-bot/internal/models"
)

const (
	historyCallbackPrefix = "hist:"
	historyPageSize       = 5
)

var statusIcons = map[appmodels.CalculationStatus]string{
	appmodels.CalculationActive:    "🟢",
	appmodels.CalculationArchived:  "📦",
	appmodels.CalculationCompleted: "✅",
}

// formatCalculation renders one saved calculation for the history list.
func formatCalculation(c appmodels.WealthCalculation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b> · %s\n", statusIcons[c.Status], escapeHTML(c.Name), c.CreatedAt.Format("2 Jan 2006"))
	fmt.Fprintf(&sb, "   Net worth: %s\n", appmodels.FormatAmount(c.NetWorth, c.Currency))
	if c.MeetsNisaab && c.ZakatDue != nil {
		fmt.Fprintf(&sb, "   Zakaat due: %s\n", appmodels.FormatAmount(*c.ZakatDue, c.Currency))
	} else {
		sb.WriteString("   Below the Nisaab\n")
	}
	fmt.Fprintf(&sb, "   ID: <code>%s</code>", escapeHTML(c.ID))
	return sb.String()
}

// renderHistory renders a page of saved calculations and its pager.
func renderHistory(page api.CalculationPage) (string, *models.InlineKeyboardMarkup) {
	if len(page.Items) == 0 {
		return "📭 No saved calculations yet. Use /zakat to start one.", nil
	}

	var sb strings.Builder
	sb.WriteString("🗂 <b>Saved Calculations</b>")
	if page.Pagination.TotalPages > 1 {
		fmt.Fprintf(&sb, " (page %d of %d)", page.Pagination.Page, page.Pagination.TotalPages)
	}
	sb.WriteString("\n\n")

	parts := make([]string, 0, len(page.Items))
	for _, c := range page.Items {
		parts = append(parts, formatCalculation(c))
	}
	sb.WriteString(strings.Join(parts, "\n\n"))
	sb.WriteString("\n\nUse /archive, /complete or /deletecalc with an ID to manage them.")

	var row []models.InlineKeyboardButton
	if page.Pagination.Page > 1 {
		row = append(row, models.InlineKeyboardButton{
			Text:         "⬅️ Previous",
			CallbackData: historyCallbackPrefix + strconv.Itoa(page.Pagination.Page-1),
		})
	}
	if page.Pagination.HasNext() {
		row = append(row, models.InlineKeyboardButton{
			Text:         "Next ➡️",
			CallbackData: historyCallbackPrefix + strconv.Itoa(page.Pagination.Page+1),
		})
	}
	if len(row) == 0 {
		return sb.String(), nil
	}
	return sb.String(), &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

func (b *Bot) fetchHistory(ctx context.Context, page int) (string, *models.InlineKeyboardMarkup, error) {
	if b.calcs == nil {
		return "", nil, errors.New("calculations backend not configured")
	}
	result, err := b.calcs.ListCalculations(ctx, api.ListOptions{Page: page, Limit: historyPageSize})
	if err != nil {
		return "", nil, err
	}
	text, markup := renderHistory(result)
	return text, markup, nil
}

// handleHistory handles the /history command.
func (b *Bot) handleHistory(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHistoryCore(ctx, tgBot, update)
}

// handleHistoryCore is the testable implementation of handleHistory.
func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	page := 1
	if args := extractCommandArgs(update.Message.Text, "/history"); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 {
			b.sendText(ctx, tg, chatID, "❌ Usage: <code>/history [page]</code>", nil)
			return
		}
		page = n
	}

	text, markup, err := b.fetchHistory(ctx, page)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list calculations")
		b.sendText(ctx, tg, chatID, "❌ Failed to load saved calculations. Please try again.", nil)
		return
	}

	if markup == nil {
		b.sendText(ctx, tg, chatID, text, nil)
		return
	}
	b.sendText(ctx, tg, chatID, text, markup)
}

// handleHistoryCallback handles the history pager buttons.
func (b *Bot) handleHistoryCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHistoryCallbackCore(ctx, tgBot, update)
}

// handleHistoryCallbackCore is the testable implementation of handleHistoryCallback.
func (b *Bot) handleHistoryCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
	})

	page, err := strconv.Atoi(strings.TrimPrefix(cq.Data, historyCallbackPrefix))
	if err != nil || page < 1 {
		return
	}

	text, markup, err := b.fetchHistory(ctx, page)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list calculations")
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    cq.Message.Message.Chat.ID,
		MessageID: cq.Message.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, _ = tg.EditMessageText(ctx, params)
}

// handleArchive handles the /archive command.
func (b *Bot) handleArchive(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStatusChangeCore(ctx, tgBot, update, "/archive", appmodels.CalculationArchived)
}

// handleComplete handles the /complete command.
func (b *Bot) handleComplete(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStatusChangeCore(ctx, tgBot, update, "/complete", appmodels.CalculationCompleted)
}

// handleStatusChangeCore moves a saved calculation to status.
func (b *Bot) handleStatusChangeCore(
	ctx context.Context,
	tg TelegramAPI,
	update *models.Update,
	command string,
	status appmodels.CalculationStatus,
) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id := extractCommandArgs(update.Message.Text, command)
	if id == "" || strings.ContainsAny(id, " \t\n") {
		b.sendText(ctx, tg, chatID, fmt.Sprintf("❌ Usage: <code>%s &lt;id&gt;</code>\n\nFind IDs with /history.", command), nil)
		return
	}

	if b.calcs == nil {
		b.sendText(ctx, tg, chatID, "❌ Saved calculations are not available.", nil)
		return
	}

	updated, err := b.calcs.UpdateCalculationStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			b.sendText(ctx, tg, chatID, fmt.Sprintf("❌ Calculation <code>%s</code> not found.", escapeHTML(id)), nil)
			return
		}
		logger.Log.Error().Err(err).Str("status", string(status)).Msg("Failed to update calculation status")
		b.sendText(ctx, tg, chatID, "❌ Failed to update the calculation. Please try again.", nil)
		return
	}

	name := updated.Name
	if name == "" {
		name = id
	}
	b.sendText(ctx, tg, chatID, fmt.Sprintf("%s <b>%s</b> is now %s.", statusIcons[status], escapeHTML(name), status), nil)
}

// handleDeleteCalculation handles the /deletecalc command.
func (b *Bot) handleDeleteCalculation(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteCalculationCore(ctx, tgBot, update)
}

// handleDeleteCalculationCore is the testable implementation of handleDeleteCalculation.
func (b *Bot) handleDeleteCalculationCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id := extractCommandArgs(update.Message.Text, "/deletecalc")
	if id == "" || strings.ContainsAny(id, " \t\n") {
		b.sendText(ctx, tg, chatID, "❌ Usage: <code>/deletecalc &lt;id&gt;</code>\n\nFind IDs with /history.", nil)
		return
	}

	if b.calcs == nil {
		b.sendText(ctx, tg, chatID, "❌ Saved calculations are not available.", nil)
		return
	}

	if err := b.calcs.DeleteCalculation(ctx, id); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			b.sendText(ctx, tg, chatID, fmt.Sprintf("❌ Calculation <code>%s</code> not found.", escapeHTML(id)), nil)
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to delete calculation")
		b.sendText(ctx, tg, chatID, "❌ Failed to delete the calculation. Please try again.", nil)
		return
	}

	b.sendText(ctx, tg, chatID, fmt.Sprintf("🗑 Calculation <code>%s</code> deleted.", escapeHTML(id)), nil)
}
