package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

var errConvertedMissing = errors.New("converted value missing in response")

// SupportedCurrencies lists the currencies the backend can convert.
func (c *Client) SupportedCurrencies(ctx context.Context) ([]models.CurrencyInfo, error) {
	var out []models.CurrencyInfo
	if err := c.getJSON(ctx, "currency/supported", nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Code = models.NormalizeCurrency(out[i].Code)
	}
	return out, nil
}

type convertResponse struct {
	ConvertedValue  *decimal.Decimal `json:"convertedValue"`
	ConvertedAmount *decimal.Decimal `json:"convertedAmount"`
	Rate            decimal.Decimal  `json:"rate"`
	Source          string           `json:"source"`
	EffectiveDate   string           `json:"effectiveDate"`
}

// Convert asks the backend to convert a single amount. Both the
// convertedValue and the older convertedAmount field are accepted.
func (c *Client) Convert(
	ctx context.Context,
	amount decimal.Decimal,
	fromCurrency, toCurrency string,
) (models.ConversionQuote, error) {
	query := url.Values{}
	query.Set("baseCurrency", strings.ToUpper(strings.TrimSpace(fromCurrency)))
	query.Set("targetCurrency", strings.ToUpper(strings.TrimSpace(toCurrency)))
	query.Set("amount", amount.String())

	var resp convertResponse
	if err := c.getJSON(ctx, "currency/convert", query, &resp); err != nil {
		return models.ConversionQuote{}, err
	}

	converted := resp.ConvertedValue
	if converted == nil {
		converted = resp.ConvertedAmount
	}
	if converted == nil {
		return models.ConversionQuote{}, errConvertedMissing
	}

	effective, err := parseDate(resp.EffectiveDate)
	if err != nil {
		return models.ConversionQuote{}, fmt.Errorf("failed to parse effective date: %w", err)
	}

	return models.ConversionQuote{
		ConvertedAmount: *converted,
		Rate:            resp.Rate,
		Source:          resp.Source,
		EffectiveDate:   effective,
	}, nil
}

// Rates returns the backend's cached rates keyed "FROM:TO". Both a bare
// map and one nested under "rates" are accepted.
func (c *Client) Rates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, "currency/rates", nil, &raw); err != nil {
		return nil, err
	}
	if nested, ok := raw["rates"]; ok {
		raw = nil
		if err := json.Unmarshal(nested, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode rates: %w", err)
		}
	}

	rates := make(map[string]decimal.Decimal, len(raw))
	for pair, value := range raw {
		var rate decimal.Decimal
		if err := json.Unmarshal(value, &rate); err != nil {
			return nil, fmt.Errorf("failed to decode rate %s: %w", pair, err)
		}
		rates[pair] = rate
	}
	return rates, nil
}
