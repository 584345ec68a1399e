package domain

import (
	"fmt"
	"sort"
)

// NamespaceWeight pairs a vector store namespace with its retrieval multiplier.
type NamespaceWeight struct {
	Name   string
	Weight float64
}

// NamespaceWeights maps each intent to an ordered namespace weight list.
// Position in the list is the namespace priority used to break ranking ties.
// A namespace absent from an intent's list weighs zero and is not queried.
type NamespaceWeights map[Intent][]NamespaceWeight

// DefaultNamespaceWeights returns the built-in routing table.
func DefaultNamespaceWeights() NamespaceWeights {
	return NamespaceWeights{
		IntentIntro: {
			{Name: "website", Weight: 2.5},
			{Name: "personal", Weight: 2.0},
			{Name: "medium", Weight: 1.5},
		},
		IntentTechnical: {
			{Name: "personal", Weight: 2.2},
			{Name: "website", Weight: 1.8},
			{Name: "medium", Weight: 1.6},
		},
		IntentHR: {
			{Name: "personal", Weight: 2.0},
			{Name: "website", Weight: 1.5},
			{Name: "medium", Weight: 1.0},
		},
		IntentManager: {
			{Name: "website", Weight: 2.0},
			{Name: "medium", Weight: 1.8},
			{Name: "personal", Weight: 1.5},
		},
	}
}

// Namespaces returns the ordered weight list for an intent. Fallback resolves
// through intro.
func (w NamespaceWeights) Namespaces(intent Intent) []NamespaceWeight {
	return w[intent.WeightKey()]
}

// Weight returns the multiplier for one intent and namespace. Zero means the
// namespace is not queried for this intent.
func (w NamespaceWeights) Weight(intent Intent, namespace string) float64 {
	for _, nw := range w.Namespaces(intent) {
		if nw.Name == namespace {
			return nw.Weight
		}
	}
	return 0
}

// Priority returns the tie-break rank of a namespace for an intent; lower is
// stronger. Namespaces outside the list rank last.
func (w NamespaceWeights) Priority(intent Intent, namespace string) int {
	list := w.Namespaces(intent)
	for i, nw := range list {
		if nw.Name == namespace {
			return i
		}
	}
	return len(list)
}

// AllNamespaces returns the sorted union of namespaces across all intents.
func (w NamespaceWeights) AllNamespaces() []string {
	seen := make(map[string]struct{})
	for _, list := range w {
		for _, nw := range list {
			seen[nw.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every non-fallback intent has at least one namespace,
// that all weights are positive, and that no row duplicates a namespace.
func (w NamespaceWeights) Validate() error {
	for _, intent := range Intents() {
		if intent == IntentFallback {
			continue
		}
		list := w[intent]
		if len(list) == 0 {
			return fmt.Errorf("intent %q has no namespace weights", intent)
		}
		seen := make(map[string]struct{}, len(list))
		for _, nw := range list {
			if nw.Name == "" {
				return fmt.Errorf("intent %q has a namespace with an empty name", intent)
			}
			if nw.Weight <= 0 {
				return fmt.Errorf("intent %q namespace %q weight must be positive, got %v", intent, nw.Name, nw.Weight)
			}
			if _, dup := seen[nw.Name]; dup {
				return fmt.Errorf("intent %q lists namespace %q twice", intent, nw.Name)
			}
			seen[nw.Name] = struct{}{}
		}
	}
	for intent := range w {
		if !intent.Valid() || intent == IntentFallback {
			return fmt.Errorf("%w: %q in weight table", ErrUnknownIntent, intent)
		}
	}
	return nil
}
