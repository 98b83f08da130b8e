package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

type nisaabResponse struct {
	GoldNisaabValue    decimal.Decimal `json:"goldNisaabValue"`
	SilverNisaabValue  decimal.Decimal `json:"silverNisaabValue"`
	GoldPricePerGram   decimal.Decimal `json:"goldPricePerGram"`
	SilverPricePerGram decimal.Decimal `json:"silverPricePerGram"`
	Currency           string          `json:"currency"`
	Date               string          `json:"date"`
	HijriDate          string          `json:"hijriDate"`
}

// NisaabToday fetches today's Nisaab values in currency.
func (c *Client) NisaabToday(ctx context.Context, currency string) (*models.NisaabData, error) {
	query := url.Values{}
	query.Set("currency", models.NormalizeCurrency(currency))

	var resp nisaabResponse
	if err := c.getJSON(ctx, "nisaab/today", query, &resp); err != nil {
		return nil, err
	}
	if !resp.GoldNisaabValue.IsPositive() || !resp.SilverNisaabValue.IsPositive() {
		return nil, fmt.Errorf("nisaab response has non-positive thresholds")
	}

	date, err := parseDate(resp.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nisaab date: %w", err)
	}

	out := &models.NisaabData{
		GoldNisaabValue:    resp.GoldNisaabValue,
		SilverNisaabValue:  resp.SilverNisaabValue,
		GoldPricePerGram:   resp.GoldPricePerGram,
		SilverPricePerGram: resp.SilverPricePerGram,
		Currency:           models.NormalizeCurrency(resp.Currency),
		Date:               date,
		HijriDate:          resp.HijriDate,
	}
	if out.Currency == "" {
		out.Currency = models.NormalizeCurrency(currency)
	}
	return out, nil
}
