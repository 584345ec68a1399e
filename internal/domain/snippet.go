package domain

import "strings"

// dedupPrefixRunes bounds how much snippet text participates in the dedup key.
const dedupPrefixRunes = 64

// Snippet is one retrieved context candidate, immutable once built.
type Snippet struct {
	text          string
	url           string
	section       string
	namespace     string
	score         float64
	weightedScore float64
	rank          int
}

// NewSnippet creates a snippet from one vector store hit.
func NewSnippet(
	text, url, section, namespace string,
	score, weightedScore float64, rank int,
) Snippet {
	return Snippet{
		text: text, url: url, section: section, namespace: namespace,
		score: score, weightedScore: weightedScore, rank: rank,
	}
}

// Text returns the snippet body.
func (s *Snippet) Text() string { return s.text }

// URL returns the source URL.
func (s *Snippet) URL() string { return s.url }

// Section returns the source section label.
func (s *Snippet) Section() string { return s.section }

// Namespace returns the namespace the snippet came from.
func (s *Snippet) Namespace() string { return s.namespace }

// Score returns the raw similarity score.
func (s *Snippet) Score() float64 { return s.score }

// WeightedScore returns the raw score scaled by the namespace weight.
func (s *Snippet) WeightedScore() float64 { return s.weightedScore }

// Rank returns the snippet's position in its namespace result list.
func (s *Snippet) Rank() int { return s.rank }

// Weighted returns a copy with the weighted score recomputed as score*weight.
func (s *Snippet) Weighted(weight float64) Snippet {
	out := *s
	out.weightedScore = s.score * weight
	return out
}

// DedupKey identifies near-duplicate snippets across namespaces: the
// normalized source URL plus a normalized prefix of the text.
func (s *Snippet) DedupKey() string {
	prefix := []rune(strings.ToLower(strings.TrimSpace(s.text)))
	if len(prefix) > dedupPrefixRunes {
		prefix = prefix[:dedupPrefixRunes]
	}
	return strings.ToLower(strings.TrimSpace(s.url)) + "|" + string(prefix)
}
