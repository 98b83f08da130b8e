package bot

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	appmodels "gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
	"gitlab.com/yelinaung/zakaat-bot/internal/zakat"
)

// Wizard callback data. Item removal appends the item ID.
const (
	callbackPrefix       = "wiz:"
	callbackNext         = "wiz:next"
	callbackBack         = "wiz:back"
	callbackRemoveAsset  = "wiz:rm:a:"
	callbackRemoveLiab   = "wiz:rm:l:"
	callbackNisaabGold   = "wiz:nisaab:gold"
	callbackNisaabSilver = "wiz:nisaab:silver"
	callbackNisaabRetry  = "wiz:nisaab:retry"
	callbackConvertRetry = "wiz:convert"
	callbackChart        = "wiz:chart"
	callbackToggleRemind = "wiz:remind"
	callbackSave         = "wiz:save"
	callbackSkipSave     = "wiz:skip"
	callbackStartOver    = "wiz:restart"
)

const defaultCalculationName = "Zakaat calculation"

// maxButtonLabel keeps remove buttons readable on narrow screens.
const maxButtonLabel = 24

const (
	assetsHelp = `Send one asset per message:
• <code>cash 1500</code>
• <code>bank 12,000 EUR Savings</code>
• <code>gold 85g</code> (market price) or <code>gold 85g @ 70</code>
• <code>livestock 40 sheep @ 150</code>
• <code>custom 500 Loan to a friend</code>`

	liabilitiesHelp = `Send one liability per message:
• <code>loan 2000</code>
• <code>card 350 EUR</code>
• <code>rent 1200</code>
• <code>custom 400 Car repair</code>`
)

// escapeHTML escapes special HTML characters for Telegram messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func truncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxButtonLabel {
		return s
	}
	return string(r[:maxButtonLabel-1]) + "…"
}

func nisaabLabel(base appmodels.NisaabBase) string {
	if base == appmodels.NisaabSilver {
		return "Silver"
	}
	return "Gold"
}

// stepHeader returns "Step n of 5 · Title" for the input steps.
func stepHeader(step wizard.Step, title string) string {
	return fmt.Sprintf("<b>Step %d of %d · %s</b>", int(step), int(wizard.StepSave), title)
}

// conversionNote describes an item's amount in the preferred currency.
func conversionNote(c appmodels.ConvertedAmount, preferred string) string {
	switch c.State {
	case appmodels.ConversionResolved:
		return " ≈ " + appmodels.FormatAmount(c.Amount, preferred)
	case appmodels.ConversionUnavailable:
		return " ⚠️ conversion unavailable"
	case appmodels.ConversionUnresolved:
		return " ⏳ converting"
	default:
		return ""
	}
}

func assetLine(a appmodels.Asset, preferred string) string {
	currency := a.Currency
	if currency == "" {
		currency = preferred
	}

	var detail string
	switch {
	case a.Type.IsMetal():
		price := "market price"
		if !a.PricePerGram.IsZero() {
			price = appmodels.FormatAmount(a.PricePerGram, currency) + "/g"
		}
		detail = fmt.Sprintf(" (%sg @ %s)", a.Weight.String(), price)
	case a.Type == appmodels.AssetLivestock:
		detail = fmt.Sprintf(" (%d × %s)", a.Count, appmodels.FormatAmount(a.ValuePerUnit, currency))
	case a.Type != appmodels.AssetCustom && a.Description != "":
		detail = " · " + escapeHTML(a.Description)
	}

	return fmt.Sprintf("• %s: %s%s%s",
		escapeHTML(a.Label()),
		appmodels.FormatAmount(a.Amount, currency),
		detail,
		conversionNote(a.Converted, preferred))
}

func liabilityLine(l appmodels.Liability, preferred string) string {
	currency := l.Currency
	if currency == "" {
		currency = preferred
	}
	line := fmt.Sprintf("• %s: %s", escapeHTML(l.Label()), appmodels.FormatAmount(l.Amount, currency))
	if l.Type != appmodels.LiabilityCustom && l.Description != "" {
		line += " · " + escapeHTML(l.Description)
	}
	return line + conversionNote(l.Converted, preferred)
}

// fieldLabel names the item a validation field points at.
func fieldLabel(form appmodels.FormState, field string) string {
	parts := strings.SplitN(field, ".", 3)
	if len(parts) < 2 {
		return ""
	}
	switch parts[0] {
	case "asset":
		for i := range form.Assets {
			if form.Assets[i].ID == parts[1] {
				return form.Assets[i].Label()
			}
		}
	case "liability":
		for i := range form.Liabilities {
			if form.Liabilities[i].ID == parts[1] {
				return form.Liabilities[i].Label()
			}
		}
	}
	return ""
}

func writeValidation(sb *strings.Builder, v wizard.View) {
	for _, m := range v.ValidationErrors {
		sb.WriteString("\n❌ ")
		if label := fieldLabel(v.Form, m.Field); label != "" {
			sb.WriteString(escapeHTML(label) + ": ")
		}
		sb.WriteString(escapeHTML(m.Message))
	}
	for _, m := range v.ValidationWarnings {
		sb.WriteString("\n⚠️ ")
		if label := fieldLabel(v.Form, m.Field); label != "" {
			sb.WriteString(escapeHTML(label) + ": ")
		}
		sb.WriteString(escapeHTML(m.Message))
	}
}

func hasUnavailable(form appmodels.FormState) bool {
	for _, a := range form.Assets {
		if a.Converted.State == appmodels.ConversionUnavailable {
			return true
		}
	}
	for _, l := range form.Liabilities {
		if l.Converted.State == appmodels.ConversionUnavailable {
			return true
		}
	}
	return false
}

func navRow(back bool, nextText string) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton
	if back {
		row = append(row, models.InlineKeyboardButton{Text: "⬅️ Back", CallbackData: callbackBack})
	}
	if nextText != "" {
		row = append(row, models.InlineKeyboardButton{Text: nextText, CallbackData: callbackNext})
	}
	return row
}

// renderView turns a wizard snapshot into a message and its keyboard.
func renderView(v wizard.View, rec zakat.Recommendation) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	var rows [][]models.InlineKeyboardButton

	switch v.CurrentStep {
	case wizard.StepWelcome:
		fmt.Fprintf(&sb, `🕌 <b>Zakaat Calculator</b>

I'll walk you through your assets and liabilities, compare your net worth with today's Nisaab and work out the Zakaat due.

All totals are shown in <b>%s</b>. Use /setcurrency to change it.`, v.PreferredCurrency)
		rows = append(rows, navRow(false, "Start ▶️"))

	case wizard.StepAssets:
		sb.WriteString(stepHeader(v.CurrentStep, "Assets") + "\n\n")
		if len(v.Form.Assets) == 0 {
			sb.WriteString("<i>No assets yet.</i>\n")
		}
		for _, a := range v.Form.Assets {
			sb.WriteString(assetLine(a, v.PreferredCurrency) + "\n")
			rows = append(rows, []models.InlineKeyboardButton{{
				Text:         "🗑 " + truncateLabel(a.Label()),
				CallbackData: callbackRemoveAsset + a.ID,
			}})
		}
		sb.WriteString("\n" + assetsHelp)
		writeValidation(&sb, v)
		rows = append(rows, navRow(true, "Next ➡️"))

	case wizard.StepLiabilities:
		sb.WriteString(stepHeader(v.CurrentStep, "Liabilities") + "\n\n")
		if len(v.Form.Liabilities) == 0 {
			sb.WriteString("<i>No liabilities. Tap Next if you have none.</i>\n")
		}
		for _, l := range v.Form.Liabilities {
			sb.WriteString(liabilityLine(l, v.PreferredCurrency) + "\n")
			rows = append(rows, []models.InlineKeyboardButton{{
				Text:         "🗑 " + truncateLabel(l.Label()),
				CallbackData: callbackRemoveLiab + l.ID,
			}})
		}
		sb.WriteString("\n" + liabilitiesHelp)
		writeValidation(&sb, v)
		rows = append(rows, navRow(true, "Next ➡️"))

	case wizard.StepNisaab:
		rows = renderNisaab(&sb, v, rec)

	case wizard.StepResults:
		rows = renderResults(&sb, v)

	case wizard.StepSave:
		rows = renderSave(&sb, v)
	}

	return sb.String(), &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func renderNisaab(sb *strings.Builder, v wizard.View, rec zakat.Recommendation) [][]models.InlineKeyboardButton {
	var rows [][]models.InlineKeyboardButton
	sb.WriteString(stepHeader(v.CurrentStep, "Nisaab") + "\n\n")

	data := v.Form.NisaabData
	switch {
	case data != nil:
		fmt.Fprintf(sb, "Nisaab for %s", data.Date.Format("2 Jan 2006"))
		if data.HijriDate != "" {
			fmt.Fprintf(sb, " (%s)", escapeHTML(data.HijriDate))
		}
		fmt.Fprintf(sb, ":\n• Gold: %s (%s/g)\n• Silver: %s (%s/g)\n",
			appmodels.FormatAmount(data.GoldNisaabValue, data.Currency),
			appmodels.FormatAmount(data.GoldPricePerGram, data.Currency),
			appmodels.FormatAmount(data.SilverNisaabValue, data.Currency),
			appmodels.FormatAmount(data.SilverPricePerGram, data.Currency))
		fmt.Fprintf(sb, "\n💡 Recommended: <b>%s</b>\n%s\n",
			nisaabLabel(rec.Recommended), escapeHTML(rec.Reason))
	case v.NisaabError != nil:
		sb.WriteString("❌ Could not load today's Nisaab values. Tap Retry to try again.\n")
		rows = append(rows, []models.InlineKeyboardButton{{Text: "🔄 Retry", CallbackData: callbackNisaabRetry}})
	default:
		sb.WriteString("⏳ Loading today's Nisaab values...\n")
	}

	gold, silver := "🥇 Gold", "🥈 Silver"
	switch v.Form.NisaabBase {
	case appmodels.NisaabGold:
		gold = "✅ " + gold
	case appmodels.NisaabSilver:
		silver = "✅ " + silver
	}
	if v.Form.NisaabBase.Valid() {
		fmt.Fprintf(sb, "\nSelected base: <b>%s</b>", nisaabLabel(v.Form.NisaabBase))
	} else {
		sb.WriteString("\nChoose the Nisaab base to compare against.")
	}

	if hasUnavailable(v.Form) {
		sb.WriteString("\n\n⚠️ Some amounts could not be converted and will be counted at their original value.")
		rows = append(rows, []models.InlineKeyboardButton{{Text: "🔄 Retry conversions", CallbackData: callbackConvertRetry}})
	}

	rows = append(rows,
		[]models.InlineKeyboardButton{
			{Text: gold, CallbackData: callbackNisaabGold},
			{Text: silver, CallbackData: callbackNisaabSilver},
		},
		navRow(true, "Calculate ➡️"),
	)
	return rows
}

func renderResults(sb *strings.Builder, v wizard.View) [][]models.InlineKeyboardButton {
	sb.WriteString(stepHeader(v.CurrentStep, "Results") + "\n\n")

	res := v.Result
	if res == nil {
		sb.WriteString("⏳ Waiting for today's Nisaab values before the result can be shown.")
		return [][]models.InlineKeyboardButton{
			{{Text: "🔄 Retry", CallbackData: callbackNisaabRetry}},
			navRow(true, ""),
		}
	}

	fmt.Fprintf(sb, "Total assets: %s\nTotal liabilities: %s\nNet worth: <b>%s</b>\n",
		appmodels.FormatAmount(res.TotalAssets, res.Currency),
		appmodels.FormatAmount(res.TotalLiabilities, res.Currency),
		appmodels.FormatAmount(res.NetWorth, res.Currency))
	fmt.Fprintf(sb, "Nisaab (%s): %s\n\n",
		nisaabLabel(res.NisaabBase),
		appmodels.FormatAmount(res.NisaabThreshold, res.Currency))

	if res.MeetsNisaab && res.ZakatDue != nil {
		fmt.Fprintf(sb, "✅ Your wealth meets the Nisaab.\n💰 Zakaat due: <b>%s</b>", appmodels.FormatAmount(*res.ZakatDue, res.Currency))
	} else {
		sb.WriteString("ℹ️ Your net worth is below the Nisaab. No Zakaat is due.")
	}

	if lines := breakdownLines(*res); len(lines) > 0 {
		sb.WriteString("\n\n<b>Breakdown</b>\n" + escapeHTML(strings.Join(lines, "\n")))
	}

	if res.UnconvertedItems > 0 {
		fmt.Fprintf(sb, "\n\n⚠️ %d item(s) could not be converted to %s and are counted at their original amount.",
			res.UnconvertedItems, res.Currency)
	}

	var rows [][]models.InlineKeyboardButton
	if res.TotalAssets.IsPositive() {
		rows = append(rows, []models.InlineKeyboardButton{{Text: "📊 Chart", CallbackData: callbackChart}})
	}
	if res.UnconvertedItems > 0 {
		rows = append(rows, []models.InlineKeyboardButton{{Text: "🔄 Retry conversions", CallbackData: callbackConvertRetry}})
	}
	return append(rows, navRow(true, "Save ➡️"))
}

func renderSave(sb *strings.Builder, v wizard.View) [][]models.InlineKeyboardButton {
	sb.WriteString(stepHeader(v.CurrentStep, "Save") + "\n\n")

	name := v.Form.CalculationName
	if name == "" {
		name = defaultCalculationName
	}
	fmt.Fprintf(sb, "Name: <b>%s</b>\nSend a message to rename it.\n", escapeHTML(name))

	remind := "off"
	remindButton := "🔔 Turn reminder on"
	if v.Form.NotificationPreferences.Enabled {
		remind = fmt.Sprintf("on, %d day(s) before", v.Form.NotificationPreferences.RemindBeforeDays)
		remindButton = "🔕 Turn reminder off"
	}
	fmt.Fprintf(sb, "Due-date reminder: %s\n", remind)

	switch {
	case v.IsSaving:
		sb.WriteString("\n⏳ Saving...")
	case v.SaveError != nil:
		sb.WriteString("\n❌ The last save failed. Tap Save to try again.")
	}

	return [][]models.InlineKeyboardButton{
		{{Text: remindButton, CallbackData: callbackToggleRemind}},
		{
			{Text: "💾 Save", CallbackData: callbackSave},
			{Text: "Skip", CallbackData: callbackSkipSave},
		},
		navRow(true, ""),
	}
}
