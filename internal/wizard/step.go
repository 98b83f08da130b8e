package wizard

import "fmt"

// Step is a wizard stage. Steps are ordered and traversed linearly.
type Step int

const (
	StepWelcome Step = iota
	StepAssets
	StepLiabilities
	StepNisaab
	StepResults
	StepSave
)

var stepNames = [...]string{"welcome", "assets", "liabilities", "nisaab", "results", "save"}

func (s Step) String() string {
	if s < StepWelcome || s > StepSave {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepWelcome && s <= StepSave
}

// ParseStep parses a step name.
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return StepWelcome, false
}

// MarshalText encodes the step by name.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name.
func (s *Step) UnmarshalText(text []byte) error {
	step, ok := ParseStep(string(text))
	if !ok {
		return fmt.Errorf("unknown step %q", text)
	}
	*s = step
	return nil
}
