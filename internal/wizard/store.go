// Package wizard implements the Zakaat calculation wizard: an owned,
// single-writer state container with named actions, step gating and draft
// persistence.
package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/zakaat-bot/internal/exchange"
	"gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/zakat"
)

var (
	// ErrValidationFailed is returned when leaving Assets or Liabilities with validation errors.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNisaabBaseRequired is returned when leaving Nisaab without a selected base.
	ErrNisaabBaseRequired = zakat.ErrNisaabBaseRequired
	// ErrNisaabUnavailable is returned when Nisaab data is missing or failed to load.
	ErrNisaabUnavailable = errors.New("nisaab data unavailable")
	// ErrResultPending is returned while the calculation waits for Nisaab data.
	ErrResultPending = errors.New("calculation result pending")
	// ErrFirstStep is returned by GoToPreviousStep on Welcome.
	ErrFirstStep = errors.New("already at the first step")
	// ErrLastStep is returned by GoToNextStep on Save.
	ErrLastStep = errors.New("already at the last step")
	// ErrItemNotFound is returned when no asset or liability has the given id.
	ErrItemNotFound = errors.New("item not found")
	// ErrUnknownType is returned for an asset or liability type outside the known set.
	ErrUnknownType = errors.New("unknown item type")
	// ErrInvalidCurrency is returned for a currency that is not a 3-letter code.
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
	// ErrCurrencyMismatch is returned when Nisaab data is in another currency.
	ErrCurrencyMismatch = errors.New("nisaab data is not in the preferred currency")
	// ErrSaveInProgress is returned when a save is already running.
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrNoSaver is returned by SaveCalculation when no saver is configured.
	ErrNoSaver = errors.New("no calculation saver configured")
)

// Converter converts an amount into another currency.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) exchange.Conversion
}

// DraftStore persists a single draft per user.
type DraftStore interface {
	SaveDraft(ctx context.Context, userID int64, draft Draft) error
	// LoadDraft returns nil and no error when the user has no draft.
	LoadDraft(ctx context.Context, userID int64) (*Draft, error)
	DeleteDraft(ctx context.Context, userID int64) error
}

// CalculationSaver persists a finished calculation.
type CalculationSaver interface {
	CreateCalculation(ctx context.Context, req models.CreateCalculationRequest) (*models.WealthCalculation, error)
}

// Options wires the Store's collaborators. All are optional.
type Options struct {
	Converter Converter
	Drafts    DraftStore
	Saver     CalculationSaver
	NewID     func() string
	Now       func() time.Time
}

// Store holds one user's in-progress calculation. All mutation goes through
// its methods; it is safe for concurrent use and never holds its lock
// across a network call.
type Store struct {
	userID    int64
	converter Converter
	drafts    DraftStore
	saver     CalculationSaver
	newID     func() string
	now       func() time.Time

	mu          sync.Mutex
	preferred   string
	step        Step
	form        models.FormState
	result      *models.CalculationResult
	report      zakat.Report
	isSaving    bool
	saveErr     error
	nisaabErr   error
	generations map[string]uint64
}

// NewStore creates an empty wizard for a user.
func NewStore(userID int64, preferredCurrency string, opts Options) *Store {
	s := &Store{
		userID:      userID,
		converter:   opts.Converter,
		drafts:      opts.Drafts,
		saver:       opts.Saver,
		newID:       opts.NewID,
		now:         opts.Now,
		preferred:   models.NormalizeCurrency(preferredCurrency),
		generations: make(map[string]uint64),
		report:      zakat.Report{IsValid: true},
	}
	if s.preferred == "" {
		s.preferred = models.DefaultCurrency
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// UserID returns the owner of the wizard.
func (s *Store) UserID() int64 { return s.userID }

// View is a read-only copy of the wizard state.
type View struct {
	CurrentStep        Step
	PreferredCurrency  string
	Form               models.FormState
	Result             *models.CalculationResult
	ValidationErrors   []models.ValidationMessage
	ValidationWarnings []models.ValidationMessage
	IsSaving           bool
	SaveError          error
	NisaabError        error
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		CurrentStep:        s.step,
		PreferredCurrency:  s.preferred,
		Form:               s.form.Clone(),
		ValidationErrors:   append([]models.ValidationMessage(nil), s.report.Errors...),
		ValidationWarnings: append([]models.ValidationMessage(nil), s.report.Warnings...),
		IsSaving:           s.isSaving,
		SaveError:          s.saveErr,
		NisaabError:        s.nisaabErr,
	}
	if s.result != nil {
		r := *s.result
		r.AssetBreakdown = make(map[models.AssetType]decimal.Decimal, len(s.result.AssetBreakdown))
		for k, val := range s.result.AssetBreakdown {
			r.AssetBreakdown[k] = val
		}
		if s.result.ZakatDue != nil {
			due := *s.result.ZakatDue
			r.ZakatDue = &due
		}
		v.Result = &r
	}
	return v
}

// CurrentStep returns the active step.
func (s *Store) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// PreferredCurrency returns the currency all totals are expressed in.
func (s *Store) PreferredCurrency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferred
}

// Validate runs the validation engine over the current items and records
// the outcome for Snapshot.
func (s *Store) Validate() zakat.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = zakat.Validate(s.form.Assets, s.form.Liabilities)
	return s.report
}

// Recommend returns the advisory Nisaab base for the current items.
func (s *Store) Recommend() zakat.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return zakat.Recommend(s.form.Assets, s.form.Liabilities, s.form.NisaabData)
}

// Calculate runs the calculation engine. It returns ErrResultPending while
// the Nisaab base or data is missing.
func (s *Store) Calculate() (models.CalculationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calculateLocked()
}

func (s *Store) calculateLocked() (models.CalculationResult, error) {
	res, err := zakat.Calculate(s.form.Assets, s.form.Liabilities, s.form.NisaabBase, s.form.NisaabData, s.preferred)
	if err != nil {
		s.result = nil
		return models.CalculationResult{}, errors.Join(ErrResultPending, err)
	}
	s.result = &res
	return res, nil
}

// recalculateIfShowing keeps the result current while the user is looking at it.
func (s *Store) recalculateIfShowing() {
	if s.step >= StepResults {
		_, _ = s.calculateLocked()
	} else {
		s.result = nil
	}
}

// SetNisaabBase selects gold or silver.
func (s *Store) SetNisaabBase(base models.NisaabBase) error {
	if !base.Valid() {
		return ErrNisaabBaseRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.NisaabBase = base
	s.recalculateIfShowing()
	return nil
}

// SetNisaabData stores today's Nisaab values and re-prices market-priced metals.
func (s *Store) SetNisaabData(data *models.NisaabData) error {
	if data == nil {
		return ErrNisaabUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if models.NormalizeCurrency(data.Currency) != s.preferred {
		return ErrCurrencyMismatch
	}

	nd := *data
	s.form.NisaabData = &nd
	s.nisaabErr = nil

	for i := range s.form.Assets {
		a := &s.form.Assets[i]
		if a.UseMarketPrice && applyMarketPrice(a, &nd) {
			s.afterAmountChange(assetKey(a.ID), &a.Converted, a.Currency)
		}
	}

	s.recalculateIfShowing()
	return nil
}

// SetNisaabError records a failed Nisaab fetch; it blocks leaving the Nisaab
// step until data arrives.
func (s *Store) SetNisaabError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nisaabErr = err
}

// SetNotificationPreferences replaces the reminder preferences.
func (s *Store) SetNotificationPreferences(p models.NotificationPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.RemindBeforeDays < 0 {
		p.RemindBeforeDays = 0
	}
	s.form.NotificationPreferences = p
}

// SetSaveCalculation records whether the user wants the result stored.
func (s *Store) SetSaveCalculation(save bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.SaveCalculation = save
}

// SetCalculationName sets the name used when saving.
func (s *Store) SetCalculationName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.CalculationName = name
}

// SetPreferredCurrency switches the calculation currency. Nisaab data and the
// result are dropped and every item's conversion starts over.
func (s *Store) SetPreferredCurrency(code string) error {
	code = models.NormalizeCurrency(code)
	if !models.IsCurrencyCode(code) {
		return ErrInvalidCurrency
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if code == s.preferred {
		return nil
	}
	s.preferred = code
	s.resetConversionsLocked()
	return nil
}

// resetConversionsLocked drops currency-dependent state.
func (s *Store) resetConversionsLocked() {
	s.form.NisaabData = nil
	s.nisaabErr = nil
	s.result = nil
	for i := range s.form.Assets {
		a := &s.form.Assets[i]
		s.afterAmountChange(assetKey(a.ID), &a.Converted, a.Currency)
	}
	for i := range s.form.Liabilities {
		l := &s.form.Liabilities[i]
		s.afterAmountChange(liabilityKey(l.ID), &l.Converted, l.Currency)
	}
}

// ResetWizard clears all state and deletes the persisted draft.
func (s *Store) ResetWizard(ctx context.Context) error {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	if s.drafts == nil {
		return nil
	}
	return s.drafts.DeleteDraft(ctx, s.userID)
}

func (s *Store) resetLocked() {
	s.step = StepWelcome
	s.form = models.FormState{}
	s.result = nil
	s.report = zakat.Report{IsValid: true}
	s.saveErr = nil
	s.nisaabErr = nil
	// In-flight conversions must never match after a reset.
	for k := range s.generations {
		s.generations[k]++
	}
}
