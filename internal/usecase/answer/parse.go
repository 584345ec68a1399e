package answer

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// jsonObject grabs the outermost brace span of a model reply, tolerating
// prose or code fences around the payload.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// modelAnswer is the validated part of a model reply.
type modelAnswer struct {
	Short     string
	Expanded  string
	Citations []domain.Citation
}

type modelPayload struct {
	AnswerShort    *string         `json:"answer_short"`
	AnswerExpanded *string         `json:"answer_expanded"`
	Citations      json.RawMessage `json:"citations"`
	Confidence     *float64        `json:"confidence"`
}

// parseModelAnswer extracts and validates the JSON shape the system prompt
// asks for. All four keys must be present; the model's confidence value is
// accepted but unused because verification rebuilds it. Citations survive
// only when they parse as citation objects.
func parseModelAnswer(text string) (modelAnswer, error) {
	candidate := jsonObject.FindString(text)
	if candidate == "" {
		return modelAnswer{}, fmt.Errorf("%w: no JSON object in reply", domain.ErrInvalidAnswerPayload)
	}

	var p modelPayload
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		return modelAnswer{}, fmt.Errorf("%w: %w", domain.ErrInvalidAnswerPayload, err)
	}
	if p.AnswerShort == nil || p.AnswerExpanded == nil || p.Citations == nil || p.Confidence == nil {
		return modelAnswer{}, fmt.Errorf("%w: missing required fields", domain.ErrInvalidAnswerPayload)
	}

	out := modelAnswer{Short: *p.AnswerShort, Expanded: *p.AnswerExpanded}
	var cites []domain.Citation
	if err := json.Unmarshal(p.Citations, &cites); err == nil {
		out.Citations = cites
	}
	return out, nil
}
