package domain

import "strings"

// Question is one user question, normalized once per request.
type Question struct {
	raw        string
	normalized string
}

// NewQuestion trims the input and derives the lowercased matching form.
func NewQuestion(raw string) Question {
	trimmed := strings.TrimSpace(raw)
	return Question{
		raw:        trimmed,
		normalized: strings.ToLower(trimmed),
	}
}

// Raw returns the question as asked, trimmed.
func (q Question) Raw() string { return q.raw }

// Normalized returns the lowercased form used for intent matching.
func (q Question) Normalized() string { return q.normalized }

// IsEmpty reports whether the question has no content.
func (q Question) IsEmpty() bool { return q.raw == "" }
