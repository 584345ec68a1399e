package verify

import (
	"math"
	"reflect"
	"testing"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

func testPacked() domain.PackedContext {
	return domain.NewPackedContext([]domain.Block{
		{Index: 1, Text: "Ganesh builds learning to rank systems for search engines.", URL: "https://a.example"},
		{Index: 2, Text: "He won the WSDM cup with a gradient boosting ensemble.", URL: "https://b.example"},
		{Index: 3, Text: "Ganesh mentors junior engineers on retrieval quality.", URL: "https://c.example"},
	})
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestVerify_GroundedAnswerWithValidCitations(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	res := v.Verify("Ganesh builds ranking systems [1]. He won the WSDM cup [2].", testPacked())

	if !reflect.DeepEqual(res.SupportedCitations, []int{1, 2}) {
		t.Errorf("SupportedCitations = %v, want [1 2]", res.SupportedCitations)
	}
	if len(res.UnsupportedCitations) != 0 {
		t.Errorf("UnsupportedCitations = %v, want none", res.UnsupportedCitations)
	}
	if res.TotalSentences != 2 || res.UngroundedSentences != 0 {
		t.Errorf("sentences = %d/%d ungrounded, want 0/2", res.UngroundedSentences, res.TotalSentences)
	}
	if !approx(res.Confidence, 1.0) {
		t.Errorf("Confidence = %v, want 1.0", res.Confidence)
	}
}

func TestVerify_UnsupportedCitationAndUngroundedSentence(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	res := v.Verify("Ganesh builds ranking systems [1]. He also studies quantum entanglement [5].", testPacked())

	if !reflect.DeepEqual(res.UnsupportedCitations, []int{5}) {
		t.Errorf("UnsupportedCitations = %v, want [5]", res.UnsupportedCitations)
	}
	if res.UngroundedSentences != 1 || res.TotalSentences != 2 {
		t.Errorf("sentences = %d/%d ungrounded, want 1/2", res.UngroundedSentences, res.TotalSentences)
	}
	// 1.0 - 0.15*1 - 0.5*(1/2)
	if !approx(res.Confidence, 0.6) {
		t.Errorf("Confidence = %v, want 0.6", res.Confidence)
	}
}

func TestVerify_OutOfRangeMarkers(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	res := v.Verify("Facts [0] and more facts [4].", testPacked())

	if !reflect.DeepEqual(res.UnsupportedCitations, []int{0, 4}) {
		t.Errorf("UnsupportedCitations = %v, want [0 4]", res.UnsupportedCitations)
	}
	if len(res.SupportedCitations) != 0 {
		t.Errorf("SupportedCitations = %v, want none", res.SupportedCitations)
	}
	// 1.0 - 0.15*2 - 0.5*1
	if !approx(res.Confidence, 0.2) {
		t.Errorf("Confidence = %v, want 0.2", res.Confidence)
	}
}

func TestVerify_AddingUnsupportedMarkerNeverRaisesConfidence(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	base := v.Verify("Ganesh builds ranking systems [1].", testPacked())
	extra := v.Verify("Ganesh builds ranking systems [1] [7].", testPacked())

	if extra.Confidence >= base.Confidence {
		t.Errorf("confidence rose from %v to %v after adding an unsupported marker",
			base.Confidence, extra.Confidence)
	}
	if !approx(extra.Confidence, 0.85) {
		t.Errorf("Confidence = %v, want 0.85", extra.Confidence)
	}
}

func TestVerify_RepeatedMarkerCountsPerOccurrence(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	res := v.Verify("Claim [9]. Another claim [9].", testPacked())

	if len(res.UnsupportedCitations) != 2 {
		t.Errorf("UnsupportedCitations = %v, want two entries", res.UnsupportedCitations)
	}
	// 1.0 - 0.15*2 - 0.5*1
	if !approx(res.Confidence, 0.2) {
		t.Errorf("Confidence = %v, want 0.2", res.Confidence)
	}
}

func TestVerify_EmptyTextScoresZero(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	for _, text := range []string{"", "   \n\t"} {
		res := v.Verify(text, testPacked())
		if res.Confidence != 0 {
			t.Errorf("Verify(%q) confidence = %v, want 0", text, res.Confidence)
		}
		if len(res.SupportedCitations) != 0 || len(res.UnsupportedCitations) != 0 {
			t.Errorf("Verify(%q) returned citations for empty text", text)
		}
		if res.TotalSentences != 0 {
			t.Errorf("Verify(%q) TotalSentences = %d, want 0", text, res.TotalSentences)
		}
	}
}

func TestVerify_EmptyContextMakesMarkersUnsupported(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	res := v.Verify("Ganesh builds search systems [1].", domain.NewPackedContext(nil))

	if !reflect.DeepEqual(res.UnsupportedCitations, []int{1}) {
		t.Errorf("UnsupportedCitations = %v, want [1]", res.UnsupportedCitations)
	}
	// 1.0 - 0.15*1 - 0.5*1
	if !approx(res.Confidence, 0.35) {
		t.Errorf("Confidence = %v, want 0.35", res.Confidence)
	}
}

func TestVerify_OverlapAtThresholdIsGrounded(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	// One of five significant tokens anchors, exactly the 0.2 threshold.
	res := v.Verify("Ganesh studies jazz piano composition.", testPacked())

	if res.UngroundedSentences != 0 {
		t.Errorf("sentence at the threshold flagged ungrounded: %+v", res)
	}
	if !approx(res.Confidence, 1.0) {
		t.Errorf("Confidence = %v, want 1.0", res.Confidence)
	}
}

func TestVerify_StopwordOnlySentenceNotFlagged(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	res := v.Verify("He was with them all.", testPacked())

	if res.TotalSentences != 1 || res.UngroundedSentences != 0 {
		t.Errorf("sentences = %d/%d ungrounded, want 0/1", res.UngroundedSentences, res.TotalSentences)
	}
	if !approx(res.Confidence, 1.0) {
		t.Errorf("Confidence = %v, want 1.0", res.Confidence)
	}
}

func TestBlendModelHint(t *testing.T) {
	v := New(domain.DefaultVerifyConfig())

	// 0.7*score + 0.3*0.8
	tests := []struct {
		score float64
		want  float64
	}{
		{1.0, 0.94},
		{0.6, 0.66},
		{0.0, 0.24},
	}
	for _, tt := range tests {
		if got := v.BlendModelHint(tt.score); !approx(got, tt.want) {
			t.Errorf("BlendModelHint(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}

	if v.BlendModelHint(0.9) <= v.BlendModelHint(0.5) {
		t.Error("blend must be increasing in the verification score")
	}
}
