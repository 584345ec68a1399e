package domain

import "fmt"

// Intent labels the routing category of a question.
type Intent string

// Closed intent set. Fallback is assigned when no pattern matches; it borrows
// intro's namespace weights but stays distinguishable downstream.
const (
	IntentIntro     Intent = "intro"
	IntentTechnical Intent = "technical"
	IntentHR        Intent = "hr"
	IntentManager   Intent = "manager"
	IntentFallback  Intent = "fallback"
)

// Intents lists every valid intent label.
func Intents() []Intent {
	return []Intent{IntentIntro, IntentTechnical, IntentHR, IntentManager, IntentFallback}
}

// ParseIntent validates a label against the closed intent set.
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentIntro, IntentTechnical, IntentHR, IntentManager, IntentFallback:
		return Intent(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

// String returns the intent label.
func (i Intent) String() string { return string(i) }

// Valid reports whether the intent belongs to the closed set.
func (i Intent) Valid() bool {
	_, err := ParseIntent(string(i))
	return err == nil
}

// WeightKey returns the intent whose namespace weights apply: fallback
// resolves to intro, every other intent maps to itself.
func (i Intent) WeightKey() Intent {
	if i == IntentFallback {
		return IntentIntro
	}
	return i
}
