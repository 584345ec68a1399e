package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingUnavailable signals an embedding provider failure or timeout.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrNamespaceUnavailable signals a vector store failure for one namespace.
	ErrNamespaceUnavailable = errors.New("namespace unavailable")
	// ErrRetrievalUnavailable signals that no namespace produced results because
	// embedding failed or every namespace query failed.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrGenerationUnavailable signals a completion provider failure or timeout.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrTokenBudgetExceeded signals an exhausted token budget.
	ErrTokenBudgetExceeded = errors.New("token budget exceeded")
	// ErrInvalidAnswerPayload signals a model reply without the expected JSON shape.
	ErrInvalidAnswerPayload = errors.New("invalid answer payload")
	// ErrUnknownIntent signals an intent label outside the closed set.
	ErrUnknownIntent = errors.New("unknown intent")
	// ErrSessionNotFound signals a missing session record.
	ErrSessionNotFound = errors.New("session not found")
)

// NamespaceError wraps ErrNamespaceUnavailable with the failing namespace.
type NamespaceError struct {
	Namespace string
	Err       error
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("namespace %q: %v", e.Namespace, e.Err)
}

func (e *NamespaceError) Unwrap() error { return ErrNamespaceUnavailable }

// NewNamespaceError creates a per-namespace retrieval error.
func NewNamespaceError(namespace string, err error) error {
	return &NamespaceError{Namespace: namespace, Err: err}
}
