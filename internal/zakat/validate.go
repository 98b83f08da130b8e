package zakat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

// Sanity ceilings above which a warning asks the user to double-check.
const (
	MaxMetalWeightGrams = 10000
	MaxLivestockCount   = 10000
)

// FieldLiabilitiesTotal is the field reported when liabilities exceed assets.
const FieldLiabilitiesTotal = "liabilities.total"

// Report is the outcome of a validation pass.
type Report struct {
	IsValid  bool
	Errors   []models.ValidationMessage
	Warnings []models.ValidationMessage
}

// ErrorFor returns the first error for field, if any.
func (r Report) ErrorFor(field string) (models.ValidationMessage, bool) {
	for _, m := range r.Errors {
		if m.Field == field {
			return m, true
		}
	}
	return models.ValidationMessage{}, false
}

type reportBuilder struct {
	r Report
}

func (b *reportBuilder) fail(field, format string, args ...any) {
	b.r.Errors = append(b.r.Errors, models.ValidationMessage{
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: models.SeverityError,
	})
}

func (b *reportBuilder) warn(field, format string, args ...any) {
	b.r.Warnings = append(b.r.Warnings, models.ValidationMessage{
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: models.SeverityWarning,
	})
}

// AssetField returns the dotted path for an asset field.
func AssetField(id, name string) string { return "asset." + id + "." + name }

// LiabilityField returns the dotted path for a liability field.
func LiabilityField(id, name string) string { return "liability." + id + "." + name }

// Validate checks assets and liabilities for errors that block navigation and
// warnings that do not. Inputs are never modified.
func Validate(assets []models.Asset, liabilities []models.Liability) Report {
	var b reportBuilder

	totalAssets := decimal.Zero
	for i := range assets {
		a := &assets[i]
		validateAsset(&b, a)
		v, _ := contribution(a.Amount, a.Currency, a.Converted, "")
		totalAssets = totalAssets.Add(v)
	}

	totalLiabilities := decimal.Zero
	for i := range liabilities {
		l := &liabilities[i]
		validateLiability(&b, l)
		v, _ := contribution(l.Amount, l.Currency, l.Converted, "")
		totalLiabilities = totalLiabilities.Add(v)
	}

	if len(liabilities) > 0 && totalLiabilities.GreaterThan(totalAssets) {
		b.warn(FieldLiabilitiesTotal, "Total liabilities exceed total assets")
	}

	b.r.IsValid = len(b.r.Errors) == 0
	return b.r
}

func validateAsset(b *reportBuilder, a *models.Asset) {
	field := func(name string) string { return AssetField(a.ID, name) }

	if !a.Type.Valid() {
		b.fail(field("type"), "Unknown asset type %q", a.Type)
	}
	if !models.IsCurrencyCode(a.Currency) {
		b.fail(field("currency"), "Currency must be a 3-letter code")
	}

	switch {
	case a.Type.IsMetal():
		if a.Weight.IsNegative() {
			b.fail(field("weight"), "Weight cannot be negative")
		} else if a.Weight.GreaterThan(decimal.NewFromInt(MaxMetalWeightGrams)) {
			b.warn(field("weight"), "%s g of %s is unusually high, please double-check", a.Weight.String(), a.Type)
		}
		if a.PricePerGram.IsNegative() {
			b.fail(field("pricePerGram"), "Price per gram cannot be negative")
		}
	case a.Type == models.AssetLivestock:
		if a.Count < 0 {
			b.fail(field("count"), "Count cannot be negative")
		} else if a.Count > MaxLivestockCount {
			b.warn(field("count"), "%d head of livestock is unusually high, please double-check", a.Count)
		}
		if a.ValuePerUnit.IsNegative() {
			b.fail(field("valuePerUnit"), "Value per unit cannot be negative")
		}
	case a.Type == models.AssetCustom:
		validateTitle(b, field("title"), a.Title)
	}

	if !a.Amount.IsPositive() {
		b.fail(field("amount"), "Amount must be greater than zero")
	}
}

func validateLiability(b *reportBuilder, l *models.Liability) {
	field := func(name string) string { return LiabilityField(l.ID, name) }

	if !l.Type.Valid() {
		b.fail(field("type"), "Unknown liability type %q", l.Type)
	}
	if !models.IsCurrencyCode(l.Currency) {
		b.fail(field("currency"), "Currency must be a 3-letter code")
	}
	if l.Type == models.LiabilityCustom {
		validateTitle(b, field("title"), l.Title)
	}
	if !l.Amount.IsPositive() {
		b.fail(field("amount"), "Amount must be greater than zero")
	}
}

func validateTitle(b *reportBuilder, field, title string) {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		b.fail(field, "Title is required")
	case len([]rune(title)) > models.MaxTitleLength:
		b.fail(field, "Title must be at most %d characters", models.MaxTitleLength)
	}
}
