package models

import (
	"github.com/shopspring/decimal"
)

// AssetType tags the asset variant.
type AssetType string

const (
	AssetCash        AssetType = "cash"
	AssetBank        AssetType = "bank"
	AssetStocks      AssetType = "stocks"
	AssetBusiness    AssetType = "business"
	AssetFarmProduce AssetType = "farmProduce"
	AssetGold        AssetType = "gold"
	AssetSilver      AssetType = "silver"
	AssetLivestock   AssetType = "livestock"
	AssetCustom      AssetType = "custom"
)

// AssetTypes lists asset types in display order.
var AssetTypes = []AssetType{
	AssetCash, AssetBank, AssetStocks, AssetBusiness, AssetFarmProduce,
	AssetGold, AssetSilver, AssetLivestock, AssetCustom,
}

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	for _, known := range AssetTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsMetal reports whether the amount is derived from weight and price per gram.
func (t AssetType) IsMetal() bool {
	return t == AssetGold || t == AssetSilver
}

// LiabilityType tags the liability variant.
type LiabilityType string

const (
	LiabilityLoan       LiabilityType = "loan"
	LiabilityCreditCard LiabilityType = "creditCard"
	LiabilityBills      LiabilityType = "bills"
	LiabilityRent       LiabilityType = "rent"
	LiabilityOther      LiabilityType = "other"
	LiabilityCustom     LiabilityType = "custom"
)

// LiabilityTypes lists liability types in display order.
var LiabilityTypes = []LiabilityType{
	LiabilityLoan, LiabilityCreditCard, LiabilityBills, LiabilityRent, LiabilityOther, LiabilityCustom,
}

// Valid reports whether t is a known liability type.
func (t LiabilityType) Valid() bool {
	for _, known := range LiabilityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ConversionState tags a ConvertedAmount.
type ConversionState string

const (
	// ConversionUnresolved means a conversion is pending or was never requested.
	ConversionUnresolved ConversionState = "unresolved"
	// ConversionNotNeeded means the item is already in the preferred currency.
	ConversionNotNeeded ConversionState = "not_needed"
	// ConversionResolved means Amount holds the value in the preferred currency.
	ConversionResolved ConversionState = "resolved"
	// ConversionUnavailable means the last conversion attempt failed.
	ConversionUnavailable ConversionState = "unavailable"
)

// ConvertedAmount is an item's amount expressed in the preferred currency.
type ConvertedAmount struct {
	State  ConversionState `json:"state"`
	Amount decimal.Decimal `json:"amount"`
}

// Unresolved returns a pending conversion.
func Unresolved() ConvertedAmount { return ConvertedAmount{State: ConversionUnresolved} }

// NotNeeded returns the no-conversion marker.
func NotNeeded() ConvertedAmount { return ConvertedAmount{State: ConversionNotNeeded} }

// Resolved returns a converted amount.
func Resolved(amount decimal.Decimal) ConvertedAmount {
	return ConvertedAmount{State: ConversionResolved, Amount: amount}
}

// Unavailable returns the failed-conversion marker.
func Unavailable() ConvertedAmount { return ConvertedAmount{State: ConversionUnavailable} }

// Value returns the converted amount when resolved.
func (c ConvertedAmount) Value() (decimal.Decimal, bool) {
	if c.State == ConversionResolved {
		return c.Amount, true
	}
	return decimal.Zero, false
}

// ConversionFor returns the initial conversion state of an item in currency
// when the user prefers preferred.
func ConversionFor(currency, preferred string) ConvertedAmount {
	if NormalizeCurrency(currency) == NormalizeCurrency(preferred) {
		return NotNeeded()
	}
	return Unresolved()
}

// Asset is a single wealth line item.
type Asset struct {
	ID        string          `json:"id"`
	Type      AssetType       `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Converted ConvertedAmount `json:"converted"`

	// Gold and silver.
	Weight         decimal.Decimal `json:"weight"`
	PricePerGram   decimal.Decimal `json:"pricePerGram"`
	UseMarketPrice bool            `json:"useMarketPrice"`

	// Livestock.
	LivestockType string          `json:"livestockType,omitempty"`
	Count         int64           `json:"count"`
	ValuePerUnit  decimal.Decimal `json:"valuePerUnit"`

	// Custom.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsDerived reports whether the amount is computed from other fields.
func (a *Asset) IsDerived() bool {
	return a.Type.IsMetal() || a.Type == AssetLivestock
}

// RecomputeAmount re-derives Amount for gold, silver and livestock assets.
func (a *Asset) RecomputeAmount() {
	switch {
	case a.Type.IsMetal():
		a.Amount = a.Weight.Mul(a.PricePerGram)
	case a.Type == AssetLivestock:
		a.Amount = decimal.NewFromInt(a.Count).Mul(a.ValuePerUnit)
	}
}

// Label returns a short human readable name for the asset.
func (a *Asset) Label() string {
	switch {
	case a.Type == AssetCustom && a.Title != "":
		return a.Title
	case a.Type == AssetLivestock && a.LivestockType != "":
		return "Livestock (" + a.LivestockType + ")"
	}
	return AssetTypeLabel(a.Type)
}

// AssetPatch is a partial asset update; nil fields are left unchanged.
type AssetPatch struct {
	Amount         *decimal.Decimal
	Currency       *string
	Weight         *decimal.Decimal
	PricePerGram   *decimal.Decimal
	UseMarketPrice *bool
	LivestockType  *string
	Count          *int64
	ValuePerUnit   *decimal.Decimal
	Title          *string
	Description    *string
}

// Liability is a single deductible debt line item.
type Liability struct {
	ID          string          `json:"id"`
	Type        LiabilityType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Converted   ConvertedAmount `json:"converted"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Label returns a short human readable name for the liability.
func (l *Liability) Label() string {
	if l.Type == LiabilityCustom && l.Title != "" {
		return l.Title
	}
	return LiabilityTypeLabel(l.Type)
}

// LiabilityPatch is a partial liability update; nil fields are left unchanged.
type LiabilityPatch struct {
	Amount      *decimal.Decimal
	Currency    *string
	Title       *string
	Description *string
}

var assetLabels = map[AssetType]string{
	AssetCash:        "Cash",
	AssetBank:        "Bank",
	AssetStocks:      "Stocks",
	AssetBusiness:    "Business",
	AssetFarmProduce: "Farm produce",
	AssetGold:        "Gold",
	AssetSilver:      "Silver",
	AssetLivestock:   "Livestock",
	AssetCustom:      "Custom",
}

var liabilityLabels = map[LiabilityType]string{
	LiabilityLoan:       "Loan",
	LiabilityCreditCard: "Credit card",
	LiabilityBills:      "Bills",
	LiabilityRent:       "Rent",
	LiabilityOther:      "Other",
	LiabilityCustom:     "Custom",
}

// AssetTypeLabel returns the display label for an asset type.
func AssetTypeLabel(t AssetType) string {
	if label, ok := assetLabels[t]; ok {
		return label
	}
	return string(t)
}

// LiabilityTypeLabel returns the display label for a liability type.
func LiabilityTypeLabel(t LiabilityType) string {
	if label, ok := liabilityLabels[t]; ok {
		return label
	}
	return string(t)
}
