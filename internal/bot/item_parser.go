package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

var (
	// ErrUnknownItemType means the first word is not an asset or liability type.
	ErrUnknownItemType = errors.New("unknown item type")
	// ErrInvalidItemAmount means the amount, weight, price or count is missing or not positive.
	ErrInvalidItemAmount = errors.New("invalid amount")
	// ErrMissingTitle means a custom item was given without a title.
	ErrMissingTitle = errors.New("custom items need a title")
)

var assetAliases = map[string]models.AssetType{
	"cash":        models.AssetCash,
	"bank":        models.AssetBank,
	"stocks":      models.AssetStocks,
	"stock":       models.AssetStocks,
	"shares":      models.AssetStocks,
	"business":    models.AssetBusiness,
	"farm":        models.AssetFarmProduce,
	"farmproduce": models.AssetFarmProduce,
	"produce":     models.AssetFarmProduce,
	"gold":        models.AssetGold,
	"silver":      models.AssetSilver,
	"livestock":   models.AssetLivestock,
	"custom":      models.AssetCustom,
}

var liabilityAliases = map[string]models.LiabilityType{
	"loan":       models.LiabilityLoan,
	"creditcard": models.LiabilityCreditCard,
	"credit":     models.LiabilityCreditCard,
	"card":       models.LiabilityCreditCard,
	"bills":      models.LiabilityBills,
	"bill":       models.LiabilityBills,
	"rent":       models.LiabilityRent,
	"other":      models.LiabilityOther,
	"custom":     models.LiabilityCustom,
}

// parsePositive parses a positive decimal. Commas are thousands separators.
func parsePositive(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, ErrInvalidItemAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidItemAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidItemAmount
	}
	return d, nil
}

// currencyToken reports whether tok names an ISO currency. Mixed case is
// rejected so ordinary words are not mistaken for codes.
func currencyToken(tok string) (string, bool) {
	if !models.IsCurrencyCode(tok) {
		return "", false
	}
	if tok != strings.ToUpper(tok) && tok != strings.ToLower(tok) {
		return "", false
	}
	code := models.NormalizeCurrency(tok)
	if _, ok := models.LookupCurrency(code); !ok {
		return "", false
	}
	return code, true
}

// amountCurrencyTitle reads "<amount> [CUR] [title...]".
func amountCurrencyTitle(fields []string) (decimal.Decimal, string, string, error) {
	if len(fields) == 0 {
		return decimal.Zero, "", "", ErrInvalidItemAmount
	}
	amount, err := parsePositive(fields[0])
	if err != nil {
		return decimal.Zero, "", "", err
	}
	rest := fields[1:]
	currency := ""
	if len(rest) > 0 {
		if code, ok := currencyToken(rest[0]); ok {
			currency = code
			rest = rest[1:]
		}
	}
	return amount, currency, strings.Join(rest, " "), nil
}

// splitAt returns the fields before and after a standalone "@".
func splitAt(fields []string) (before, after []string, found bool) {
	for i, f := range fields {
		if f == "@" {
			return fields[:i], fields[i+1:], true
		}
		if strings.HasPrefix(f, "@") && len(f) > 1 {
			return fields[:i], append([]string{f[1:]}, fields[i+1:]...), true
		}
	}
	return fields, nil, false
}

// parseWeight accepts "50g", "50 g", "50gram" and "50 grams".
func parseWeight(fields []string) (decimal.Decimal, []string, error) {
	if len(fields) == 0 {
		return decimal.Zero, nil, ErrInvalidItemAmount
	}
	tok := strings.ToLower(fields[0])
	rest := fields[1:]
	for _, unit := range []string{"grams", "gram", "g"} {
		if strings.HasSuffix(tok, unit) && len(tok) > len(unit) {
			tok = strings.TrimSuffix(tok, unit)
			break
		}
	}
	if len(rest) > 0 {
		switch strings.ToLower(rest[0]) {
		case "g", "gram", "grams":
			rest = rest[1:]
		}
	}
	w, err := parsePositive(tok)
	return w, rest, err
}

func parseMetal(t models.AssetType, fields []string) (*models.Asset, error) {
	before, after, priced := splitAt(fields)
	weight, rest, err := parseWeight(before)
	if err != nil {
		return nil, fmt.Errorf("weight: %w", err)
	}
	a := &models.Asset{Type: t, Weight: weight}

	if priced {
		price, currency, _, err := amountCurrencyTitle(after)
		if err != nil {
			return nil, fmt.Errorf("price per gram: %w", err)
		}
		a.PricePerGram = price
		a.Currency = currency
		return a, nil
	}

	// Without a price the market price from today's Nisaab data is used.
	if len(rest) > 0 && !strings.EqualFold(rest[0], "market") {
		return nil, fmt.Errorf("expected @ price or market: %w", ErrInvalidItemAmount)
	}
	a.UseMarketPrice = true
	return a, nil
}

func parseLivestock(fields []string) (*models.Asset, error) {
	before, after, priced := splitAt(fields)
	if !priced || len(before) == 0 {
		return nil, fmt.Errorf("expected <count> <kind> @ <value>: %w", ErrInvalidItemAmount)
	}
	count, err := strconv.ParseInt(strings.ReplaceAll(before[0], ",", ""), 10, 64)
	if err != nil || count <= 0 {
		return nil, fmt.Errorf("count: %w", ErrInvalidItemAmount)
	}
	value, currency, _, err := amountCurrencyTitle(after)
	if err != nil {
		return nil, fmt.Errorf("value per head: %w", err)
	}
	return &models.Asset{
		Type:          models.AssetLivestock,
		Count:         count,
		LivestockType: strings.Join(before[1:], " "),
		ValuePerUnit:  value,
		Currency:      currency,
	}, nil
}

// ParseAssetLine parses one asset line such as "cash 1000 USD",
// "gold 50g @ 75.5 USD", "gold 50g market", "livestock 12 sheep @ 150" or
// "custom 500 EUR Loan to cousin". An empty currency means the user's
// preferred currency. Derived amounts are computed.
func ParseAssetLine(line string) (*models.Asset, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrUnknownItemType
	}
	t, ok := assetAliases[strings.ToLower(fields[0])]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemType, fields[0])
	}
	args := fields[1:]

	var a *models.Asset
	var err error
	switch {
	case t.IsMetal():
		a, err = parseMetal(t, args)
	case t == models.AssetLivestock:
		a, err = parseLivestock(args)
	default:
		var amount decimal.Decimal
		var currency, title string
		amount, currency, title, err = amountCurrencyTitle(args)
		if err == nil {
			a = &models.Asset{Type: t, Amount: amount, Currency: currency}
			if t == models.AssetCustom {
				a.Title = title
			} else {
				a.Description = title
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if t == models.AssetCustom && strings.TrimSpace(a.Title) == "" {
		return nil, ErrMissingTitle
	}
	a.RecomputeAmount()
	return a, nil
}

// ParseLiabilityLine parses one liability line such as "loan 2000" or
// "custom 500 EUR Owed to cousin".
func ParseLiabilityLine(line string) (*models.Liability, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrUnknownItemType
	}
	t, ok := liabilityAliases[strings.ToLower(fields[0])]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemType, fields[0])
	}
	amount, currency, title, err := amountCurrencyTitle(fields[1:])
	if err != nil {
		return nil, err
	}
	l := &models.Liability{Type: t, Amount: amount, Currency: currency}
	if t == models.LiabilityCustom {
		if title == "" {
			return nil, ErrMissingTitle
		}
		l.Title = title
	} else {
		l.Description = title
	}
	return l, nil
}
