package verify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// minTokenRunes is the shortest token that counts toward lexical overlap.
const minTokenRunes = 3

var (
	citationMarker = regexp.MustCompile(`\[(\d+)\]`)
	sentenceEnd    = regexp.MustCompile(`[.!?]+`)
	wordPattern    = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

// stopwords are frequent words excluded from overlap scoring. Tokens shorter
// than minTokenRunes are already excluded, so only longer function words
// appear here.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"has": true, "have": true, "was": true, "were": true, "one": true,
	"our": true, "out": true, "his": true, "her": true, "him": true,
	"she": true, "its": true, "this": true, "that": true, "with": true,
	"from": true, "they": true, "them": true, "then": true, "than": true,
	"will": true, "would": true, "could": true, "should": true,
	"there": true, "their": true, "these": true, "those": true,
	"what": true, "when": true, "which": true, "your": true, "about": true,
	"also": true, "been": true, "more": true, "some": true, "into": true,
	"other": true, "over": true, "such": true, "only": true, "very": true,
	"just": true, "like": true, "does": true, "each": true, "how": true,
	"who": true, "why": true, "where": true,
}

// Verifier scores a generated answer against the context it was given.
// It is pure policy: no I/O, no error path, deterministic for a given input.
type Verifier struct {
	cfg domain.VerifyConfig
}

// New creates a verifier with the given confidence policy.
func New(cfg domain.VerifyConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify classifies the answer's citation markers against the packed block
// count, flags sentences with no lexical anchor in the packed texts, and
// derives a confidence score. Empty text scores zero. More unsupported
// citations or a larger ungrounded fraction never raise the score.
func (v *Verifier) Verify(generatedText string, packed domain.PackedContext) domain.VerificationResult {
	if strings.TrimSpace(generatedText) == "" {
		return domain.VerificationResult{}
	}

	supported, unsupported := classifyCitations(generatedText, packed.BlockCount())

	contextTokens := contextTokenSet(packed)
	total, ungrounded := 0, 0
	for _, sentence := range splitSentences(generatedText) {
		total++
		tokens := significantTokens(sentence)
		if len(tokens) == 0 {
			// Nothing to anchor, so nothing to flag.
			continue
		}
		if overlapFraction(tokens, contextTokens) < v.cfg.OverlapThreshold {
			ungrounded++
		}
	}

	result := domain.VerificationResult{
		SupportedCitations:   supported,
		UnsupportedCitations: unsupported,
		UngroundedSentences:  ungrounded,
		TotalSentences:       total,
	}
	result.Confidence = v.confidence(len(unsupported), result.UngroundedFraction())
	return result
}

// BlendModelHint folds the configured model self-confidence hint into a
// verification confidence. The blend is increasing in the input score.
func (v *Verifier) BlendModelHint(confidence float64) float64 {
	w := v.cfg.ModelHintWeight
	return clamp01((1-w)*confidence + w*v.cfg.ModelHint)
}

func (v *Verifier) confidence(unsupported int, ungroundedFraction float64) float64 {
	score := 1.0 -
		v.cfg.UnsupportedPenalty*float64(unsupported) -
		v.cfg.UngroundedWeight*ungroundedFraction
	return clamp01(score)
}

// classifyCitations splits every [n] marker occurrence into supported
// (1 <= n <= blockCount) and unsupported. Repeated markers count once per
// occurrence.
func classifyCitations(text string, blockCount int) (supported, unsupported []int) {
	for _, m := range citationMarker.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > blockCount {
			unsupported = append(unsupported, n)
			continue
		}
		supported = append(supported, n)
	}
	return supported, unsupported
}

func splitSentences(text string) []string {
	var sentences []string
	for _, part := range sentenceEnd.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

func contextTokenSet(packed domain.PackedContext) map[string]bool {
	tokens := make(map[string]bool)
	for _, b := range packed.Blocks() {
		for tok := range significantTokens(b.Text) {
			tokens[tok] = true
		}
	}
	return tokens
}

func significantTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len([]rune(tok)) < minTokenRunes || stopwords[tok] {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}

// overlapFraction returns the share of sentence tokens present in the
// context token set.
func overlapFraction(sentence, context map[string]bool) float64 {
	shared := 0
	for tok := range sentence {
		if context[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(sentence))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
