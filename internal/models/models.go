// Package models defines the domain entities for the Zakaat wealth calculator.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the preferred currency for new users.
const DefaultCurrency = "USD"

// MaxTitleLength is the maximum allowed length for custom item titles.
const MaxTitleLength = 80

// User represents a Telegram user of the bot.
type User struct {
	ID                int64
	Username          string
	FirstName         string
	LastName          string
	PreferredCurrency string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NisaabBase selects the metal used as the Nisaab reference.
type NisaabBase string

const (
	NisaabGold   NisaabBase = "gold"
	NisaabSilver NisaabBase = "silver"
)

// Valid reports whether b is gold or silver.
func (b NisaabBase) Valid() bool {
	return b == NisaabGold || b == NisaabSilver
}

// NisaabData is a dated Nisaab snapshot expressed in one currency.
type NisaabData struct {
	GoldNisaabValue    decimal.Decimal `json:"goldNisaabValue"`
	SilverNisaabValue  decimal.Decimal `json:"silverNisaabValue"`
	GoldPricePerGram   decimal.Decimal `json:"goldPricePerGram"`
	SilverPricePerGram decimal.Decimal `json:"silverPricePerGram"`
	Currency           string          `json:"currency"`
	Date               time.Time       `json:"date"`
	HijriDate          string          `json:"hijriDate,omitempty"`
}

// Threshold returns the Nisaab value for the given base.
func (n *NisaabData) Threshold(base NisaabBase) decimal.Decimal {
	if base == NisaabSilver {
		return n.SilverNisaabValue
	}
	return n.GoldNisaabValue
}

// PricePerGram returns the market price per gram for a metal asset type.
func (n *NisaabData) PricePerGram(t AssetType) (decimal.Decimal, bool) {
	switch t {
	case AssetGold:
		return n.GoldPricePerGram, n.GoldPricePerGram.IsPositive()
	case AssetSilver:
		return n.SilverPricePerGram, n.SilverPricePerGram.IsPositive()
	default:
		return decimal.Zero, false
	}
}

// NotificationPreferences controls the Zakaat due-date reminder for a saved calculation.
type NotificationPreferences struct {
	Enabled          bool `json:"enabled"`
	RemindBeforeDays int  `json:"remindBeforeDays"`
}

// FormState is the in-progress wizard draft.
type FormState struct {
	Assets                  []Asset                 `json:"assets"`
	Liabilities             []Liability             `json:"liabilities"`
	NisaabBase              NisaabBase              `json:"nisaabBase,omitempty"`
	NisaabData              *NisaabData             `json:"nisaabData,omitempty"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
	SaveCalculation         bool                    `json:"saveCalculation"`
	CalculationName         string                  `json:"calculationName"`
}

// Clone returns a deep copy of the form state.
func (f FormState) Clone() FormState {
	out := f
	out.Assets = append([]Asset(nil), f.Assets...)
	out.Liabilities = append([]Liability(nil), f.Liabilities...)
	if f.NisaabData != nil {
		nd := *f.NisaabData
		out.NisaabData = &nd
	}
	return out
}

// CalculationResult is the derived outcome of a Zakaat calculation.
type CalculationResult struct {
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	NetWorth         decimal.Decimal
	NisaabBase       NisaabBase
	NisaabThreshold  decimal.Decimal
	MeetsNisaab      bool
	// ZakatDue is nil when the Nisaab is not met.
	ZakatDue         *decimal.Decimal
	Currency         string
	AssetBreakdown   map[AssetType]decimal.Decimal
	UnconvertedItems int
}

// CalculationStatus is the lifecycle state of a saved calculation.
type CalculationStatus string

const (
	CalculationActive    CalculationStatus = "active"
	CalculationArchived  CalculationStatus = "archived"
	CalculationCompleted CalculationStatus = "completed"
)

// Valid reports whether s is a known status.
func (s CalculationStatus) Valid() bool {
	switch s {
	case CalculationActive, CalculationArchived, CalculationCompleted:
		return true
	}
	return false
}

// WealthCalculation is a calculation snapshot persisted by the backend.
type WealthCalculation struct {
	ID                      string                  `json:"id"`
	Name                    string                  `json:"name"`
	Assets                  []Asset                 `json:"assets"`
	Liabilities             []Liability             `json:"liabilities"`
	NisaabBase              NisaabBase              `json:"nisaabBase"`
	NisaabThreshold         decimal.Decimal         `json:"nisaabThreshold"`
	Currency                string                  `json:"currency"`
	TotalAssets             decimal.Decimal         `json:"totalAssets"`
	TotalLiabilities        decimal.Decimal         `json:"totalLiabilities"`
	NetWorth                decimal.Decimal         `json:"netWorth"`
	MeetsNisaab             bool                    `json:"meetsNisaab"`
	ZakatDue                *decimal.Decimal        `json:"zakatDue"`
	Status                  CalculationStatus       `json:"status"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
	CreatedAt               time.Time               `json:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}

// ConversionQuote is a single remote conversion answer.
type ConversionQuote struct {
	ConvertedAmount decimal.Decimal
	Rate            decimal.Decimal
	Source          string
	EffectiveDate   time.Time
}

// Severity distinguishes blocking validation errors from advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationMessage points at a single offending field.
type ValidationMessage struct {
	Field    string
	Message  string
	Severity Severity
}

// CreateCalculationRequest is the body posted to persist a finished calculation.
type CreateCalculationRequest struct {
	Name                    string                  `json:"name"`
	Assets                  []Asset                 `json:"assets"`
	Liabilities             []Liability             `json:"liabilities"`
	NisaabBase              NisaabBase              `json:"nisaabBase"`
	NisaabThreshold         decimal.Decimal         `json:"nisaabThreshold"`
	Currency                string                  `json:"currency"`
	TotalAssets             decimal.Decimal         `json:"totalAssets"`
	TotalLiabilities        decimal.Decimal         `json:"totalLiabilities"`
	NetWorth                decimal.Decimal         `json:"netWorth"`
	MeetsNisaab             bool                    `json:"meetsNisaab"`
	ZakatDue                *decimal.Decimal        `json:"zakatDue"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
}
