package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/gemini"
	"gitlab.com/yelinaung/zakaat-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/telemetry"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
)

// defaultRemindBeforeDays is used when the reminder is switched on.
const defaultRemindBeforeDays = 7

// actionResult is what a wizard action tells the handler to show.
type actionResult struct {
	// notice is shown as the callback answer.
	notice string
	alert  bool
	// text replaces the rendered step when set.
	text string
	// skipRender leaves the wizard message untouched.
	skipRender bool
}

// handleWizardCallback handles inline keyboard presses on the wizard message.
func (b *Bot) handleWizardCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleWizardCallbackCore(ctx, tgBot, update)
}

// handleWizardCallbackCore is the testable implementation of handleWizardCallback.
func (b *Bot) handleWizardCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}

	userID := cq.From.ID
	chatID := cq.Message.Message.Chat.ID
	messageID := cq.Message.Message.ID

	ctx, span := b.metrics.StartSpan(ctx, "wizard.callback")
	defer span.End()

	store, _ := b.session(ctx, userID)
	res := b.applyWizardAction(ctx, tg, store, chatID, cq.Data)

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            res.notice,
		ShowAlert:       res.alert,
	})

	if res.skipRender {
		return
	}

	b.persistDraft(ctx, store)

	text, markup := renderView(store.Snapshot(), store.Recommend())
	if res.text != "" {
		text = res.text
		markup = startOverKeyboard()
	}

	_, err := tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		logger.Log.Debug().Err(err).Msg("Failed to edit wizard message, sending a new one")
		b.sendText(ctx, tg, chatID, text, markup)
	}
}

func startOverKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🔄 New calculation", CallbackData: callbackStartOver}},
		},
	}
}

// applyWizardAction runs the action named by the callback data.
func (b *Bot) applyWizardAction(
	ctx context.Context,
	tg TelegramAPI,
	store *wizard.Store,
	chatID int64,
	data string,
) actionResult {
	switch {
	case data == callbackNext:
		return b.wizardNext(ctx, store)

	case data == callbackBack:
		_, _ = store.GoToPreviousStep()
		return actionResult{}

	case strings.HasPrefix(data, callbackRemoveAsset):
		return removeResult(store.RemoveAsset(strings.TrimPrefix(data, callbackRemoveAsset)), store)

	case strings.HasPrefix(data, callbackRemoveLiab):
		return removeResult(store.RemoveLiability(strings.TrimPrefix(data, callbackRemoveLiab)), store)

	case data == callbackNisaabGold:
		_ = store.SetNisaabBase(appmodels.NisaabGold)
		return actionResult{}

	case data == callbackNisaabSilver:
		_ = store.SetNisaabBase(appmodels.NisaabSilver)
		return actionResult{}

	case data == callbackNisaabRetry:
		if err := b.ensureNisaab(ctx, store, true); err != nil {
			return actionResult{notice: "❌ Nisaab values are still unavailable. Please try again later."}
		}
		b.recordResult(ctx, store)
		return actionResult{notice: "✅ Nisaab values loaded"}

	case data == callbackConvertRetry:
		return b.retryConversions(ctx, store)

	case data == callbackChart:
		return b.sendChart(ctx, tg, store, chatID)

	case data == callbackToggleRemind:
		prefs := store.Snapshot().Form.NotificationPreferences
		prefs.Enabled = !prefs.Enabled
		if prefs.Enabled && prefs.RemindBeforeDays == 0 {
			prefs.RemindBeforeDays = defaultRemindBeforeDays
		}
		store.SetNotificationPreferences(prefs)
		return actionResult{}

	case data == callbackSave:
		return b.saveCalculation(ctx, store)

	case data == callbackSkipSave:
		store.SetSaveCalculation(false)
		if err := store.ResetWizard(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to delete draft after skipping save")
		}
		b.metrics.RecordSave(ctx, telemetry.OutcomeDiscarded)
		return actionResult{text: "👍 Done. This calculation was not saved."}

	case data == callbackStartOver:
		if err := store.ResetWizard(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to delete draft on restart")
		}
		return actionResult{}
	}

	return actionResult{skipRender: true}
}

func removeResult(err error, store *wizard.Store) actionResult {
	if errors.Is(err, wizard.ErrItemNotFound) {
		return actionResult{notice: "Item was already removed"}
	}
	store.Validate()
	return actionResult{notice: "🗑 Removed"}
}

// wizardNext advances the wizard and prepares the step it lands on.
func (b *Bot) wizardNext(ctx context.Context, store *wizard.Store) actionResult {
	step, err := store.GoToNextStep()
	switch {
	case errors.Is(err, wizard.ErrValidationFailed):
		return actionResult{notice: "Please fix the errors shown below"}
	case errors.Is(err, wizard.ErrNisaabBaseRequired):
		return actionResult{notice: "Choose Gold or Silver first"}
	case errors.Is(err, wizard.ErrNisaabUnavailable):
		return actionResult{notice: "Nisaab values are unavailable. Tap Retry.", alert: true}
	case errors.Is(err, wizard.ErrResultPending):
		return actionResult{notice: "The result is not ready yet"}
	case errors.Is(err, wizard.ErrLastStep):
		return actionResult{}
	case err != nil:
		logger.Log.Error().Err(err).Msg("Failed to advance wizard")
		return actionResult{notice: "❌ Something went wrong"}
	}

	b.prepareStep(ctx, store)
	if step == wizard.StepResults {
		b.recordResult(ctx, store)
	}
	return actionResult{}
}

// prepareStep loads what the Nisaab and later steps need.
func (b *Bot) prepareStep(ctx context.Context, store *wizard.Store) {
	if store.CurrentStep() < wizard.StepNisaab {
		return
	}
	_ = b.ensureNisaab(ctx, store, false)
	b.convertPending(ctx, store)
}

func (b *Bot) recordResult(ctx context.Context, store *wizard.Store) {
	if store.CurrentStep() != wizard.StepResults {
		return
	}
	if res, ok := store.Result(); ok {
		b.metrics.RecordCalculation(ctx, string(res.NisaabBase), res.MeetsNisaab)
	}
}

// ensureNisaab fetches today's Nisaab into the wizard unless it already has
// it. force refetches after a failure.
func (b *Bot) ensureNisaab(ctx context.Context, store *wizard.Store, force bool) error {
	if b.nisaab == nil {
		return wizard.ErrNisaabUnavailable
	}
	if !force && store.Snapshot().Form.NisaabData != nil {
		return nil
	}

	data, err := b.nisaab.NisaabToday(ctx, store.PreferredCurrency())
	if err == nil {
		err = store.SetNisaabData(data)
	}
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(store.UserID())).
			Msg("Failed to load nisaab")
		store.SetNisaabError(err)
		return err
	}
	return nil
}

func (b *Bot) convertPending(ctx context.Context, store *wizard.Store) wizard.ConversionSummary {
	sum := store.ConvertPending(ctx)
	for range sum.Resolved {
		b.metrics.RecordConversion(ctx, telemetry.OutcomeResolved)
	}
	for range sum.Unavailable {
		b.metrics.RecordConversion(ctx, telemetry.OutcomeUnavailable)
	}
	for range sum.Discarded {
		b.metrics.RecordConversion(ctx, telemetry.OutcomeDiscarded)
	}
	return sum
}

// retryConversions asks again for every item whose conversion failed.
func (b *Bot) retryConversions(ctx context.Context, store *wizard.Store) actionResult {
	v := store.Snapshot()

	var refs []wizard.ItemRef
	for _, a := range v.Form.Assets {
		if a.Converted.State == appmodels.ConversionUnavailable {
			refs = append(refs, wizard.ItemRef{Side: wizard.SideAsset, ID: a.ID})
		}
	}
	for _, l := range v.Form.Liabilities {
		if l.Converted.State == appmodels.ConversionUnavailable {
			refs = append(refs, wizard.ItemRef{Side: wizard.SideLiability, ID: l.ID})
		}
	}
	refs = append(refs, store.PendingConversions()...)

	failed := 0
	for _, ref := range refs {
		conv, applied, err := store.RequestConversion(ctx, ref)
		switch {
		case err != nil || !applied:
			b.metrics.RecordConversion(ctx, telemetry.OutcomeDiscarded)
		case conv.ConvertedAmount().State == appmodels.ConversionUnavailable:
			failed++
			b.metrics.RecordConversion(ctx, telemetry.OutcomeUnavailable)
		default:
			b.metrics.RecordConversion(ctx, telemetry.OutcomeResolved)
		}
	}

	if failed > 0 {
		return actionResult{notice: fmt.Sprintf("⚠️ %d conversion(s) still unavailable", failed)}
	}
	return actionResult{notice: "✅ Amounts converted"}
}

// sendChart sends the asset breakdown pie chart as a document.
func (b *Bot) sendChart(ctx context.Context, tg TelegramAPI, store *wizard.Store, chatID int64) actionResult {
	res, ok := store.Result()
	if !ok {
		return actionResult{notice: "The result is not ready yet", skipRender: true}
	}

	png, err := GenerateBreakdownChart(res)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate breakdown chart")
		return actionResult{notice: "❌ Could not draw the chart", skipRender: true}
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: chartFilename(b.now().Format("2006-01-02")),
			Data:     bytes.NewReader(png),
		},
		Caption: "📊 Asset breakdown (" + res.Currency + ")",
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send breakdown chart")
		return actionResult{notice: "❌ Could not send the chart", skipRender: true}
	}
	return actionResult{skipRender: true}
}

// saveCalculation posts the result to the backend.
func (b *Bot) saveCalculation(ctx context.Context, store *wizard.Store) actionResult {
	store.SetSaveCalculation(true)
	name := store.Snapshot().Form.CalculationName
	if name == "" {
		name = defaultCalculationName
		store.SetCalculationName(name)
	}

	saved, err := store.SaveCalculation(ctx)
	switch {
	case errors.Is(err, wizard.ErrSaveInProgress):
		return actionResult{notice: "⏳ Already saving"}
	case err != nil:
		b.metrics.RecordSave(ctx, telemetry.OutcomeFailure)
		return actionResult{notice: "❌ Save failed. Please try again.", alert: true}
	}

	b.metrics.RecordSave(ctx, telemetry.OutcomeSuccess)
	return actionResult{
		notice: "✅ Saved",
		text: fmt.Sprintf("✅ Saved <b>%s</b>.\n\nID: <code>%s</code>\nUse /history to see your saved calculations.",
			escapeHTML(name), escapeHTML(saved.ID)),
	}
}

// persistDraft stores the wizard state. The welcome screen has nothing to keep.
func (b *Bot) persistDraft(ctx context.Context, store *wizard.Store) {
	if b.drafts == nil || store.CurrentStep() == wizard.StepWelcome {
		return
	}
	if err := store.PersistDraft(ctx); err != nil {
		logger.Log.Warn().Err(err).
			Str("user_hash", logger.HashUserID(store.UserID())).
			Msg("Failed to persist draft")
	}
}

// sendText sends an HTML message, logging failures.
func (b *Bot) sendText(ctx context.Context, tg TelegramAPI, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send message")
	}
}

// showWizard sends the current wizard step as a new message, prefixed by notice.
func (b *Bot) showWizard(ctx context.Context, tg TelegramAPI, chatID int64, store *wizard.Store, notice string) {
	text, markup := renderView(store.Snapshot(), store.Recommend())
	if notice != "" {
		text = notice + "\n\n" + text
	}
	b.sendText(ctx, tg, chatID, text, markup)
}

// handleWizardTextCore treats free text as input to the active step. It
// reports whether the text was consumed.
func (b *Bot) handleWizardTextCore(ctx context.Context, tg TelegramAPI, update *models.Update) bool {
	text := strings.TrimSpace(update.Message.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return false
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	store, _ := b.session(ctx, userID)

	var notice string
	switch store.CurrentStep() {
	case wizard.StepAssets, wizard.StepLiabilities:
		var ok bool
		notice, ok = b.addItemFromText(ctx, store, text)
		if !ok {
			b.sendText(ctx, tg, chatID, notice, nil)
			return true
		}

	case wizard.StepSave:
		name := []rune(text)
		if len(name) > appmodels.MaxTitleLength {
			name = name[:appmodels.MaxTitleLength]
		}
		store.SetCalculationName(string(name))
		notice = "✏️ Name updated"

	default:
		return false
	}

	b.persistDraft(ctx, store)
	b.showWizard(ctx, tg, chatID, store, notice)
	return true
}

// addItemFromText adds the item described by text to the active step.
// When the line format is not recognised the Gemini parser is tried.
func (b *Bot) addItemFromText(ctx context.Context, store *wizard.Store, text string) (string, bool) {
	var (
		label     string
		parseErr  error
		needsData bool
	)

	if store.CurrentStep() == wizard.StepAssets {
		asset, err := ParseAssetLine(text)
		if err == nil {
			added, err := store.AddAsset(*asset)
			if err != nil {
				return "❌ " + escapeHTML(err.Error()), false
			}
			label = added.Label()
			needsData = added.UseMarketPrice
		}
		parseErr = err
	} else {
		liability, err := ParseLiabilityLine(text)
		if err == nil {
			added, err := store.AddLiability(*liability)
			if err != nil {
				return "❌ " + escapeHTML(err.Error()), false
			}
			label = added.Label()
		}
		parseErr = err
	}

	if parseErr != nil {
		if errors.Is(parseErr, ErrUnknownItemType) && b.holdings != nil {
			return b.addHoldingsFromText(ctx, store, text)
		}
		help := assetsHelp
		if store.CurrentStep() == wizard.StepLiabilities {
			help = liabilitiesHelp
		}
		return "❌ " + escapeHTML(parseErr.Error()) + "\n\n" + help, false
	}

	if needsData {
		_ = b.ensureNisaab(ctx, store, false)
	}
	b.convertPending(ctx, store)
	store.Validate()
	return "✅ Added " + escapeHTML(label), true
}

// addHoldingsFromText adds everything the Gemini parser extracts from text.
func (b *Bot) addHoldingsFromText(ctx context.Context, store *wizard.Store, text string) (string, bool) {
	holdings, err := b.holdings.ParseHoldings(ctx, text, store.PreferredCurrency())
	switch {
	case errors.Is(err, gemini.ErrParseTimeout):
		return "⏱ That took too long. Please try a shorter description or the line format.", false
	case errors.Is(err, gemini.ErrNoHoldings):
		return "🤔 I couldn't find any assets or liabilities in that.\n\n" + assetsHelp, false
	case err != nil:
		return "❌ Failed to read that description. Please use the line format.\n\n" + assetsHelp, false
	}

	var needsData bool
	var assets, liabilities int
	skipped := holdings.Skipped
	for _, a := range holdings.Assets {
		added, err := store.AddAsset(a)
		if err != nil {
			skipped++
			continue
		}
		assets++
		needsData = needsData || added.UseMarketPrice
	}
	for _, l := range holdings.Liabilities {
		if _, err := store.AddLiability(l); err != nil {
			skipped++
			continue
		}
		liabilities++
	}

	if assets+liabilities == 0 {
		return fmt.Sprintf("🤔 None of the %d item(s) I found could be added.\n\n", skipped) + assetsHelp, false
	}

	if needsData {
		_ = b.ensureNisaab(ctx, store, false)
	}
	b.convertPending(ctx, store)
	store.Validate()

	notice := fmt.Sprintf("✅ Added %d asset(s) and %d liability(ies)", assets, liabilities)
	if skipped > 0 {
		notice += fmt.Sprintf("\n⚠️ Skipped %d unclear item(s)", skipped)
	}
	return notice, true
}
