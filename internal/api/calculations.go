package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

const calculationsPath = "wealth-calculations"

// ListOptions filters and pages the saved calculation list.
type ListOptions struct {
	Page   int
	Limit  int
	Status models.CalculationStatus
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether another page follows.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// CalculationPage is one page of saved calculations.
type CalculationPage struct {
	Items      []models.WealthCalculation
	Pagination Pagination
}

type listResponse struct {
	Data       []models.WealthCalculation `json:"data"`
	Items      []models.WealthCalculation `json:"items"`
	Pagination Pagination                 `json:"pagination"`
}

// ListCalculations returns a page of saved calculations.
func (c *Client) ListCalculations(ctx context.Context, opts ListOptions) (CalculationPage, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(opts.Page))
	query.Set("limit", strconv.Itoa(opts.Limit))
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}

	// Pagination sits next to data, so the envelope is not unwrapped here.
	body, err := c.do(ctx, http.MethodGet, calculationsPath, query, nil)
	if err != nil {
		return CalculationPage{}, err
	}

	page := CalculationPage{Pagination: Pagination{Page: opts.Page, Limit: opts.Limit}}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &page.Items); err != nil {
			return CalculationPage{}, fmt.Errorf("failed to decode calculations: %w", err)
		}
		page.Pagination.Total = len(page.Items)
		page.Pagination.TotalPages = opts.Page
		return page, nil
	}

	var resp listResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return CalculationPage{}, fmt.Errorf("failed to decode calculations: %w", err)
	}
	page.Items = resp.Data
	if page.Items == nil {
		page.Items = resp.Items
	}
	if resp.Pagination.Page > 0 {
		page.Pagination = resp.Pagination
	}
	return page, nil
}

// GetCalculation fetches a saved calculation by id.
func (c *Client) GetCalculation(ctx context.Context, id string) (*models.WealthCalculation, error) {
	var out models.WealthCalculation
	if err := c.getJSON(ctx, calculationsPath+"/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCalculation persists a finished calculation.
func (c *Client) CreateCalculation(ctx context.Context, req models.CreateCalculationRequest) (*models.WealthCalculation, error) {
	body, err := c.do(ctx, http.MethodPost, calculationsPath, nil, req)
	if err != nil {
		return nil, err
	}
	var out models.WealthCalculation
	if err := json.Unmarshal(unwrap(body), &out); err != nil {
		return nil, fmt.Errorf("failed to decode created calculation: %w", err)
	}
	return &out, nil
}

type statusRequest struct {
	Status models.CalculationStatus `json:"status"`
}

// UpdateCalculationStatus moves a saved calculation to a new status.
func (c *Client) UpdateCalculationStatus(
	ctx context.Context,
	id string,
	status models.CalculationStatus,
) (*models.WealthCalculation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid calculation status %q", status)
	}
	body, err := c.do(ctx, http.MethodPatch, calculationsPath+"/"+url.PathEscape(id)+"/status", nil, statusRequest{Status: status})
	if err != nil {
		return nil, err
	}
	var out models.WealthCalculation
	if len(bytes.TrimSpace(body)) == 0 {
		return &models.WealthCalculation{ID: id, Status: status}, nil
	}
	if err := json.Unmarshal(unwrap(body), &out); err != nil {
		return nil, fmt.Errorf("failed to decode calculation: %w", err)
	}
	return &out, nil
}

// DeleteCalculation removes a saved calculation. Deleting a missing
// calculation returns an error matching ErrNotFound.
func (c *Client) DeleteCalculation(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("calculation id is required")
	}
	_, err := c.do(ctx, http.MethodDelete, calculationsPath+"/"+url.PathEscape(id), nil, nil)
	return err
}
