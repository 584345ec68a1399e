package gani

import (
	"errors"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// ErrEmptyQuestion is returned by Answer for questions with no content.
var ErrEmptyQuestion = errors.New("gani: question is empty")

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmbeddingUnavailable  = domain.ErrEmbeddingUnavailable
	ErrNamespaceUnavailable  = domain.ErrNamespaceUnavailable
	ErrRetrievalUnavailable  = domain.ErrRetrievalUnavailable
	ErrGenerationUnavailable = domain.ErrGenerationUnavailable
	ErrTokenBudgetExceeded   = domain.ErrTokenBudgetExceeded
	ErrInvalidAnswerPayload  = domain.ErrInvalidAnswerPayload
	ErrUnknownIntent         = domain.ErrUnknownIntent
	ErrSessionNotFound       = domain.ErrSessionNotFound
)
