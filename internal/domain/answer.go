package domain

// Fixed texts for degraded answers.
const (
	// DegradedAnswerShort replaces the short answer when retrieval or
	// generation is unavailable.
	DegradedAnswerShort = "I don't have enough information to answer that question."
	// DegradedAnswerExpanded replaces the expanded answer in the same cases.
	DegradedAnswerExpanded = "I don't have enough information about that specific topic. " +
		"Could you provide more details or share a link/document so I can give you a better answer?"
	// MalformedAnswerShort replaces the short answer when the model reply is
	// not the expected JSON; the raw reply is kept as the expanded answer.
	MalformedAnswerShort = "I'm having trouble formatting my response properly."
)

// Answer is the pipeline's final product for one question.
type Answer struct {
	ID         string
	Short      string
	Expanded   string
	Citations  []Citation
	Confidence float64
	Intent     Intent
	SessionKey string
	Degraded   bool
}

// DegradedAnswer builds the fixed fallback used when retrieval fails:
// zero confidence, no citations, intent preserved.
func DegradedAnswer(intent Intent, sessionKey string) Answer {
	return Answer{
		Short:      DegradedAnswerShort,
		Expanded:   DegradedAnswerExpanded,
		Citations:  []Citation{},
		Confidence: 0,
		Intent:     intent,
		SessionKey: sessionKey,
		Degraded:   true,
	}
}

// UngeneratedAnswer builds the fallback used when generation fails after a
// successful retrieval. Citations from the packed context are kept for
// diagnostics.
func UngeneratedAnswer(intent Intent, sessionKey string, citations []Citation) Answer {
	a := DegradedAnswer(intent, sessionKey)
	if citations != nil {
		a.Citations = citations
	}
	return a
}
