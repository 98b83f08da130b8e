package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/zakaat-bot/internal/exchange"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.NewID == nil {
		opts.NewID = sequentialIDs()
	}
	return NewStore(42, "USD", opts)
}

func usdNisaab() *models.NisaabData {
	return &models.NisaabData{
		GoldNisaabValue:    dec("5000"),
		SilverNisaabValue:  dec("400"),
		GoldPricePerGram:   dec("70"),
		SilverPricePerGram: dec("0.85"),
		Currency:           "USD",
	}
}

// advance walks the store forward n steps, failing on any gate.
func advance(t *testing.T, s *Store, n int) {
	t.Helper()
	for range n {
		_, err := s.GoToNextStep()
		require.NoError(t, err)
	}
}

// rateConverter multiplies by a fixed rate.
type rateConverter struct {
	rate  decimal.Decimal
	calls atomic.Int32
}

func (c *rateConverter) Convert(_ context.Context, amount decimal.Decimal, _, _ string) exchange.Conversion {
	c.calls.Add(1)
	return exchange.Conversion{Status: exchange.StatusResolved, Amount: amount.Mul(c.rate), Rate: c.rate}
}

// gatedConverter blocks conversions of specific amounts until released.
type gatedConverter struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func newGatedConverter() *gatedConverter {
	return &gatedConverter{gates: make(map[string]chan struct{}), started: make(chan string, 16)}
}

func (c *gatedConverter) hold(amount string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan struct{})
	c.gates[amount] = ch
	return ch
}

func (c *gatedConverter) Convert(_ context.Context, amount decimal.Decimal, _, _ string) exchange.Conversion {
	c.started <- amount.String()
	c.mu.Lock()
	gate := c.gates[amount.String()]
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return exchange.Conversion{Status: exchange.StatusResolved, Amount: amount.Mul(decimal.NewFromInt(2))}
}

type unavailableConverter struct{}

func (unavailableConverter) Convert(context.Context, decimal.Decimal, string, string) exchange.Conversion {
	return exchange.Conversion{Status: exchange.StatusUnavailable}
}

// memDraftStore round-trips drafts through JSON like the database does.
type memDraftStore struct {
	mu      sync.Mutex
	drafts  map[int64][]byte
	saveErr error
	deleted int
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: make(map[int64][]byte)}
}

func (m *memDraftStore) SaveDraft(_ context.Context, userID int64, d Draft) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[userID] = raw
	return nil
}

func (m *memDraftStore) LoadDraft(_ context.Context, userID int64) (*Draft, error) {
	m.mu.Lock()
	raw, ok := m.drafts[userID]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *memDraftStore) DeleteDraft(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	m.deleted++
	return nil
}

func (m *memDraftStore) has(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.drafts[userID]
	return ok
}

type fakeSaver struct {
	err  error
	reqs []models.CreateCalculationRequest
}

func (f *fakeSaver) CreateCalculation(_ context.Context, req models.CreateCalculationRequest) (*models.WealthCalculation, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.WealthCalculation{
		ID:       "calc-1",
		Name:     req.Name,
		Currency: req.Currency,
		NetWorth: req.NetWorth,
		ZakatDue: req.ZakatDue,
		Status:   models.CalculationActive,
	}, nil
}
