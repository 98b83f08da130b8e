package wizard

import (
	"strings"

	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func assetKey(id string) string     { return "asset:" + id }
func liabilityKey(id string) string { return "liability:" + id }

// afterAmountChange resets an item's conversion and invalidates any
// in-flight conversion for it.
func (s *Store) afterAmountChange(key string, converted *models.ConvertedAmount, currency string) {
	*converted = models.ConversionFor(currency, s.preferred)
	s.generations[key]++
}

func applyMarketPrice(a *models.Asset, data *models.NisaabData) bool {
	if data == nil || !a.Type.IsMetal() {
		return false
	}
	price, ok := data.PricePerGram(a.Type)
	if !ok {
		return false
	}
	currency := models.NormalizeCurrency(data.Currency)
	if a.PricePerGram.Equal(price) && a.Currency == currency {
		return false
	}
	a.PricePerGram = price
	a.Currency = currency
	a.RecomputeAmount()
	return true
}

// normalizeAsset enforces the derived-amount invariant and clears fields
// that do not belong to the asset's variant.
func (s *Store) normalizeAsset(a *models.Asset) {
	a.Currency = models.NormalizeCurrency(a.Currency)
	if a.Currency == "" {
		a.Currency = s.preferred
	}
	a.Title = strings.TrimSpace(a.Title)

	if !a.Type.IsMetal() {
		a.UseMarketPrice = false
	} else if a.UseMarketPrice {
		applyMarketPrice(a, s.form.NisaabData)
	}
	a.RecomputeAmount()
}

func (s *Store) findAsset(id string) int {
	for i := range s.form.Assets {
		if s.form.Assets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findLiability(id string) int {
	for i := range s.form.Liabilities {
		if s.form.Liabilities[i].ID == id {
			return i
		}
	}
	return -1
}

// AddAsset appends an asset, assigning an id when empty. The stored copy is
// returned with its derived amount and conversion state set.
func (s *Store) AddAsset(a models.Asset) (models.Asset, error) {
	if !a.Type.Valid() {
		return models.Asset{}, ErrUnknownType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" || s.findAsset(a.ID) >= 0 {
		a.ID = s.newID()
	}
	s.normalizeAsset(&a)
	s.afterAmountChange(assetKey(a.ID), &a.Converted, a.Currency)

	s.form.Assets = append(s.form.Assets, a)
	s.recalculateIfShowing()
	return a, nil
}

// UpdateAsset merges the non-nil patch fields into an asset. Amount is
// ignored for gold, silver and livestock, whose amount is derived.
func (s *Store) UpdateAsset(id string, p models.AssetPatch) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findAsset(id)
	if i < 0 {
		return models.Asset{}, ErrItemNotFound
	}
	a := s.form.Assets[i]
	before := a

	if p.Amount != nil && !a.IsDerived() {
		a.Amount = *p.Amount
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.Weight != nil {
		a.Weight = *p.Weight
	}
	if p.PricePerGram != nil {
		a.PricePerGram = *p.PricePerGram
		if p.UseMarketPrice == nil {
			a.UseMarketPrice = false
		}
	}
	if p.UseMarketPrice != nil {
		a.UseMarketPrice = *p.UseMarketPrice
	}
	if p.LivestockType != nil {
		a.LivestockType = strings.TrimSpace(*p.LivestockType)
	}
	if p.Count != nil {
		a.Count = *p.Count
	}
	if p.ValuePerUnit != nil {
		a.ValuePerUnit = *p.ValuePerUnit
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}

	s.normalizeAsset(&a)
	if !a.Amount.Equal(before.Amount) || a.Currency != before.Currency {
		s.afterAmountChange(assetKey(a.ID), &a.Converted, a.Currency)
	}

	s.form.Assets[i] = a
	s.recalculateIfShowing()
	return a, nil
}

// RemoveAsset deletes an asset and discards any in-flight conversion for it.
func (s *Store) RemoveAsset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findAsset(id)
	if i < 0 {
		return ErrItemNotFound
	}
	s.form.Assets = append(s.form.Assets[:i], s.form.Assets[i+1:]...)
	s.generations[assetKey(id)]++
	s.recalculateIfShowing()
	return nil
}

// AddLiability appends a liability, assigning an id when empty.
func (s *Store) AddLiability(l models.Liability) (models.Liability, error) {
	if !l.Type.Valid() {
		return models.Liability{}, ErrUnknownType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" || s.findLiability(l.ID) >= 0 {
		l.ID = s.newID()
	}
	l.Currency = models.NormalizeCurrency(l.Currency)
	if l.Currency == "" {
		l.Currency = s.preferred
	}
	l.Title = strings.TrimSpace(l.Title)
	s.afterAmountChange(liabilityKey(l.ID), &l.Converted, l.Currency)

	s.form.Liabilities = append(s.form.Liabilities, l)
	s.recalculateIfShowing()
	return l, nil
}

// UpdateLiability merges the non-nil patch fields into a liability.
func (s *Store) UpdateLiability(id string, p models.LiabilityPatch) (models.Liability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLiability(id)
	if i < 0 {
		return models.Liability{}, ErrItemNotFound
	}
	l := s.form.Liabilities[i]
	before := l

	if p.Amount != nil {
		l.Amount = *p.Amount
	}
	if p.Currency != nil {
		l.Currency = models.NormalizeCurrency(*p.Currency)
		if l.Currency == "" {
			l.Currency = s.preferred
		}
	}
	if p.Title != nil {
		l.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		l.Description = *p.Description
	}

	if !l.Amount.Equal(before.Amount) || l.Currency != before.Currency {
		s.afterAmountChange(liabilityKey(l.ID), &l.Converted, l.Currency)
	}

	s.form.Liabilities[i] = l
	s.recalculateIfShowing()
	return l, nil
}

// RemoveLiability deletes a liability and discards any in-flight conversion for it.
func (s *Store) RemoveLiability(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLiability(id)
	if i < 0 {
		return ErrItemNotFound
	}
	s.form.Liabilities = append(s.form.Liabilities[:i], s.form.Liabilities[i+1:]...)
	s.generations[liabilityKey(id)]++
	s.recalculateIfShowing()
	return nil
}
