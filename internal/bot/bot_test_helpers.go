package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/api"
	"gitlab.com/yelinaung/zakaat-bot/internal/config"
	"gitlab.com/yelinaung/zakaat-bot/internal/database"
	"gitlab.com/yelinaung/zakaat-bot/internal/exchange"
	"gitlab.com/yelinaung/zakaat-bot/internal/gemini"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/repository"
	"gitlab.com/yelinaung/zakaat-bot/internal/wizard"
)

// TestDB is a convenience wrapper around database.TestDB for bot tests.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := database.TestDB(t)

	ctx := context.Background()
	if err := database.RunMigrations(ctx, pool); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		database.CleanupTables(t, pool)
	})

	return pool
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// testNisaab is today's Nisaab in USD: 85g gold at 70/g, 595g silver at 0.9/g.
func testNisaab() *models.NisaabData {
	return &models.NisaabData{
		GoldNisaabValue:    decimal.RequireFromString("5950"),
		SilverNisaabValue:  decimal.RequireFromString("535.5"),
		GoldPricePerGram:   decimal.RequireFromString("70"),
		SilverPricePerGram: decimal.RequireFromString("0.9"),
		Currency:           "USD",
		Date:               testNow,
		HijriDate:          "11 Ramadan 1447",
	}
}

// mustParseDecimal parses a decimal string or panics (for test data).
func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("invalid decimal in test: " + s)
	}
	return d
}

type fakeUsers struct {
	mu         sync.Mutex
	users      map[int64]*models.User
	upsertErr  error
	updateErr  error
	currencyOf map[int64]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]*models.User), currencyOf: make(map[int64]string)}
}

func (f *fakeUsers) UpsertUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	u := *user
	f.users[user.ID] = &u
	return nil
}

func (f *fakeUsers) GetPreferredCurrency(_ context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.currencyOf[userID]
	if !ok {
		return "", repository.ErrUserNotFound
	}
	return c, nil
}

func (f *fakeUsers) UpdatePreferredCurrency(_ context.Context, userID int64, currency string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.currencyOf[userID] = currency
	return nil
}

type fakeDrafts struct {
	mu     sync.Mutex
	drafts map[int64]wizard.Draft
	saves  int
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: make(map[int64]wizard.Draft)}
}

func (f *fakeDrafts) SaveDraft(_ context.Context, userID int64, draft wizard.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.drafts[userID] = draft
	return nil
}

func (f *fakeDrafts) LoadDraft(_ context.Context, userID int64) (*wizard.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeDrafts) DeleteDraft(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, userID)
	return nil
}

func (f *fakeDrafts) has(userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.drafts[userID]
	return ok
}

// fakeConverter converts with fixed "FROM:TO" rates; missing pairs are unavailable.
type fakeConverter struct {
	mu    sync.Mutex
	rates map[string]decimal.Decimal
}

func (f *fakeConverter) Convert(_ context.Context, amount decimal.Decimal, from, to string) exchange.Conversion {
	if from == to || !amount.IsPositive() {
		return exchange.Conversion{Status: exchange.StatusNotNeeded, Amount: amount}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rate, ok := f.rates[from+":"+to]
	if !ok {
		return exchange.Conversion{Status: exchange.StatusUnavailable, Err: errors.New("no rate")}
	}
	return exchange.Conversion{Status: exchange.StatusResolved, Amount: amount.Mul(rate), Rate: rate}
}

func (f *fakeConverter) setRate(pair string, rate decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates[pair] = rate
}

type fakeNisaab struct {
	mu    sync.Mutex
	data  *models.NisaabData
	err   error
	calls int
}

func (f *fakeNisaab) NisaabToday(_ context.Context, currency string) (*models.NisaabData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	d := *f.data
	d.Currency = currency
	return &d, nil
}

type fakeCalcs struct {
	mu        sync.Mutex
	created   []models.CreateCalculationRequest
	createErr error
	page      api.CalculationPage
	listErr   error
	listOpts  []api.ListOptions
	statusErr error
	statuses  map[string]models.CalculationStatus
	deleteErr error
	deleted   []string
}

func newFakeCalcs() *fakeCalcs {
	return &fakeCalcs{statuses: make(map[string]models.CalculationStatus)}
}

func (f *fakeCalcs) CreateCalculation(_ context.Context, req models.CreateCalculationRequest) (*models.WealthCalculation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &models.WealthCalculation{ID: "calc-1", Name: req.Name, Status: models.CalculationActive}, nil
}

func (f *fakeCalcs) ListCalculations(_ context.Context, opts api.ListOptions) (api.CalculationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listOpts = append(f.listOpts, opts)
	return f.page, f.listErr
}

func (f *fakeCalcs) UpdateCalculationStatus(_ context.Context, id string, status models.CalculationStatus) (*models.WealthCalculation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	f.statuses[id] = status
	return &models.WealthCalculation{ID: id, Name: "Ramadan 2026", Status: status}, nil
}

func (f *fakeCalcs) DeleteCalculation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCurrencies struct {
	list []models.CurrencyInfo
	err  error
}

func (f *fakeCurrencies) SupportedCurrencies(context.Context) ([]models.CurrencyInfo, error) {
	return f.list, f.err
}

type fakeHoldings struct {
	holdings *gemini.Holdings
	err      error
	texts    []string
}

func (f *fakeHoldings) ParseHoldings(_ context.Context, text, _ string) (*gemini.Holdings, error) {
	f.texts = append(f.texts, text)
	return f.holdings, f.err
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testDeps holds the fakes behind a test Bot.
type testDeps struct {
	users     *fakeUsers
	drafts    *fakeDrafts
	converter *fakeConverter
	nisaab    *fakeNisaab
	calcs     *fakeCalcs
}

// newTestBot creates a Bot wired to in-memory fakes.
func newTestBot(t *testing.T) (*Bot, *testDeps) {
	t.Helper()

	deps := &testDeps{
		users:     newFakeUsers(),
		drafts:    newFakeDrafts(),
		converter: &fakeConverter{rates: map[string]decimal.Decimal{"EUR:USD": mustParseDecimal("1.1")}},
		nisaab:    &fakeNisaab{data: testNisaab()},
		calcs:     newFakeCalcs(),
	}

	cfg := &config.Config{
		TelegramBotToken:    "test-token",
		DatabaseURL:         "test-url",
		DefaultCurrency:     "USD",
		RateRefreshInterval: time.Hour,
	}

	b := &Bot{
		cfg:       cfg,
		userRepo:  deps.users,
		drafts:    deps.drafts,
		converter: deps.converter,
		nisaab:    deps.nisaab,
		calcs:     deps.calcs,
		now:       func() time.Time { return testNow },
		sessions:  make(map[int64]*wizard.Store),
	}
	return b, deps
}
