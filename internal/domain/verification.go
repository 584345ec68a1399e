package domain

// VerificationResult reports how well a generated answer is anchored in the
// packed context. Confidence never increases with more unsupported citations
// or a larger ungrounded fraction.
type VerificationResult struct {
	Confidence           float64
	SupportedCitations   []int
	UnsupportedCitations []int
	UngroundedSentences  int
	TotalSentences       int
}

// UngroundedFraction returns the share of sentences with no lexical anchor
// in the packed context.
func (v VerificationResult) UngroundedFraction() float64 {
	if v.TotalSentences == 0 {
		return 0
	}
	return float64(v.UngroundedSentences) / float64(v.TotalSentences)
}
