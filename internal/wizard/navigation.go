package wizard

import (
	"errors"
	"fmt"

	"gitlab.com/yelinaung/zakaat-bot/internal/models"
	"gitlab.com/yelinaung/zakaat-bot/internal/zakat"
)

// GoToNextStep advances one step. Leaving Assets or Liabilities requires a
// valid item list, leaving Nisaab requires a base, and leaving Results
// requires a computed result. Entering Results runs the calculation, which
// stays pending until the Nisaab data arrives.
func (s *Store) GoToNextStep() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepAssets:
		s.report = zakat.Validate(s.form.Assets, nil)
		if !s.report.IsValid {
			return s.step, fmt.Errorf("%w: %d error(s)", ErrValidationFailed, len(s.report.Errors))
		}
	case StepLiabilities:
		s.report = zakat.Validate(s.form.Assets, s.form.Liabilities)
		if !s.report.IsValid {
			return s.step, fmt.Errorf("%w: %d error(s)", ErrValidationFailed, len(s.report.Errors))
		}
	case StepNisaab:
		if !s.form.NisaabBase.Valid() {
			return s.step, ErrNisaabBaseRequired
		}
		if s.form.NisaabData == nil && s.nisaabErr != nil {
			return s.step, fmt.Errorf("%w: %w", ErrNisaabUnavailable, s.nisaabErr)
		}
	case StepResults:
		if s.result == nil {
			if _, err := s.calculateLocked(); err != nil {
				return s.step, err
			}
		}
	case StepSave:
		return s.step, ErrLastStep
	}

	s.step++
	if s.step == StepResults {
		if _, err := s.calculateLocked(); err != nil && !errors.Is(err, ErrResultPending) {
			return s.step, err
		}
	}
	return s.step, nil
}

// GoToPreviousStep moves back one step.
func (s *Store) GoToPreviousStep() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step == StepWelcome {
		return s.step, ErrFirstStep
	}
	s.step--
	if s.step < StepResults {
		s.result = nil
	}
	return s.step, nil
}

// Result returns the current calculation result, if computed.
func (s *Store) Result() (models.CalculationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return models.CalculationResult{}, false
	}
	return *s.result, true
}
