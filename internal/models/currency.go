package models

import (
	"strings"

	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const defaultDecimalPlaces = 2

// CurrencyInfo describes a currency supported by the backend.
type CurrencyInfo struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	DecimalPlaces int32  `json:"decimalPlaces"`
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrencyCode reports whether code is made of exactly three ASCII letters.
func IsCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// DecimalPlaces returns the minor-unit precision of a currency, defaulting to 2
// for codes unknown to the ISO table.
func DecimalPlaces(code string) int32 {
	c := money.GetCurrency(NormalizeCurrency(code))
	if c == nil {
		return defaultDecimalPlaces
	}
	return int32(c.Fraction) //nolint:gosec // ISO fractions are 0-4
}

// CurrencySymbol returns the display symbol for a currency, or the code itself.
func CurrencySymbol(code string) string {
	code = NormalizeCurrency(code)
	c := money.GetCurrency(code)
	if c == nil || c.Grapheme == "" {
		return code
	}
	return c.Grapheme
}

// LookupCurrency builds a CurrencyInfo from the ISO table. ok is false for
// unknown codes.
func LookupCurrency(code string) (CurrencyInfo, bool) {
	code = NormalizeCurrency(code)
	c := money.GetCurrency(code)
	if c == nil {
		return CurrencyInfo{Code: code, Symbol: code, DecimalPlaces: defaultDecimalPlaces}, false
	}
	return CurrencyInfo{
		Code:          c.Code,
		Name:          c.Code,
		Symbol:        CurrencySymbol(code),
		DecimalPlaces: int32(c.Fraction), //nolint:gosec // ISO fractions are 0-4
	}, true
}

// RoundToCurrency rounds an amount to the currency's decimal places.
func RoundToCurrency(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(DecimalPlaces(code))
}

// FormatAmount renders an amount with the currency's precision, e.g. "1234.50 USD".
func FormatAmount(amount decimal.Decimal, code string) string {
	code = NormalizeCurrency(code)
	return amount.StringFixed(DecimalPlaces(code)) + " " + code
}
