package intent

import "github.com/ganeshmamidipalli/GANI/internal/domain"

// DefaultPriority is the built-in tie-break order, strongest first.
func DefaultPriority() []domain.Intent {
	return []domain.Intent{
		domain.IntentTechnical,
		domain.IntentHR,
		domain.IntentManager,
		domain.IntentIntro,
	}
}

// Classifier routes questions to intents via the static pattern table.
// Classification is total: every question maps to exactly one intent,
// with fallback when nothing matches.
type Classifier struct {
	priority map[domain.Intent]int
	unranked int
}

// New creates a classifier with the given tie-break order, strongest first.
// A nil or empty order falls back to DefaultPriority. Intents left out of
// the order lose every tie.
func New(priority []domain.Intent) *Classifier {
	if len(priority) == 0 {
		priority = DefaultPriority()
	}
	ranks := make(map[domain.Intent]int, len(priority))
	for i, in := range priority {
		ranks[in] = i
	}
	return &Classifier{priority: ranks, unranked: len(priority)}
}

// Classify maps a question to exactly one intent. Among matching patterns
// the most specific wins; specificity ties resolve by the priority order,
// and equal-priority ties by table order.
func (c *Classifier) Classify(q domain.Question) domain.Intent {
	question := q.Normalized()
	if question == "" {
		return domain.IntentFallback
	}

	best := domain.IntentFallback
	bestSpec := -1
	bestRank := 0

	for _, p := range compiledTable {
		if !p.re.MatchString(question) {
			continue
		}
		rank := c.rank(p.intent)
		if p.specificity > bestSpec || (p.specificity == bestSpec && rank < bestRank) {
			best = p.intent
			bestSpec = p.specificity
			bestRank = rank
		}
	}

	return best
}

func (c *Classifier) rank(i domain.Intent) int {
	if r, ok := c.priority[i]; ok {
		return r
	}
	return c.unranked
}
