package answer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
	"github.com/ganeshmamidipalli/GANI/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	m.Run()
}

// --- Mocks ---

type mockClassifier struct {
	intent domain.Intent
	calls  int
}

func (m *mockClassifier) Classify(domain.Question) domain.Intent {
	m.calls++
	return m.intent
}

type mockRetriever struct {
	snippets  []domain.Snippet
	err       error
	gotK      int
	gotIntent domain.Intent
}

func (m *mockRetriever) Retrieve(_ context.Context, _ domain.Question, intent domain.Intent, k int) ([]domain.Snippet, error) {
	m.gotK, m.gotIntent = k, intent
	if m.err != nil {
		return nil, m.err
	}
	return m.snippets, nil
}

type mockPacker struct {
	packed domain.PackedContext
}

func (m *mockPacker) Pack([]domain.Snippet) domain.PackedContext { return m.packed }

type mockGenerator struct {
	result domain.GenerationResult
	err    error
	gotReq domain.GenerationRequest
	calls  int
}

func (m *mockGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	m.calls++
	m.gotReq = req
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return m.result, nil
}

type mockVerifier struct {
	result  domain.VerificationResult
	blended float64 // returned by BlendModelHint when > 0
	gotText string
}

func (m *mockVerifier) Verify(text string, _ domain.PackedContext) domain.VerificationResult {
	m.gotText = text
	return m.result
}

func (m *mockVerifier) BlendModelHint(c float64) float64 {
	if m.blended > 0 {
		return m.blended
	}
	return c
}

type mockSessions struct {
	mu       sync.Mutex
	records  map[string]domain.SessionRecord
	getErr   error
	putErr   error
	putCalls int
}

func newMockSessions() *mockSessions {
	return &mockSessions{records: make(map[string]domain.SessionRecord)}
}

func (m *mockSessions) Get(_ context.Context, key string) (domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.SessionRecord{}, m.getErr
	}
	rec, ok := m.records[key]
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return rec, nil
}

func (m *mockSessions) Put(_ context.Context, rec domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	m.records[rec.Key] = rec
	return nil
}

// --- Fixtures ---

const validReply = `{"answer_short": "He builds ranking systems.", ` +
	`"answer_expanded": "Ganesh builds ranking systems [1].", ` +
	`"citations": [{"index": 1, "url": "https://a.example"}], ` +
	`"confidence": 0.9}`

func testSnippets() []domain.Snippet {
	return []domain.Snippet{
		domain.NewSnippet("Ganesh builds ranking systems.", "https://a.example", "", "personal", 0.9, 1.8, 1),
		domain.NewSnippet("He mentors junior engineers.", "https://b.example", "Mentoring", "website", 0.8, 1.2, 2),
	}
}

func testPackedContext() domain.PackedContext {
	return domain.NewPackedContext([]domain.Block{
		{Index: 1, Text: "Ganesh builds ranking systems.", URL: "https://a.example"},
		{Index: 2, Text: "He mentors junior engineers.", URL: "https://b.example", Section: "Mentoring"},
	})
}

type pipelineMocks struct {
	classifier *mockClassifier
	retriever  *mockRetriever
	packer     *mockPacker
	generator  *mockGenerator
	verifier   *mockVerifier
}

func newPipelineMocks() pipelineMocks {
	return pipelineMocks{
		classifier: &mockClassifier{intent: domain.IntentTechnical},
		retriever:  &mockRetriever{snippets: testSnippets()},
		packer:     &mockPacker{packed: testPackedContext()},
		generator:  &mockGenerator{result: domain.GenerationResult{Text: validReply, TotalTokens: 42}},
		verifier:   &mockVerifier{result: domain.VerificationResult{Confidence: 0.8}},
	}
}

func (pm pipelineMocks) service(sessions SessionStore) *Service {
	return New(pm.classifier, pm.retriever, pm.packer, pm.generator, pm.verifier, sessions, zap.NewNop())
}

// --- Tests ---

func TestAnswer_HappyPath(t *testing.T) {
	pm := newPipelineMocks()
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "session_0001")

	if a.Short != "He builds ranking systems." {
		t.Errorf("Short = %q", a.Short)
	}
	if a.Expanded != "Ganesh builds ranking systems [1]." {
		t.Errorf("Expanded = %q", a.Expanded)
	}
	if len(a.Citations) != 1 || a.Citations[0].URL != "https://a.example" {
		t.Errorf("Citations = %+v, want the model's single citation", a.Citations)
	}
	if a.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want the blended verification score 0.8", a.Confidence)
	}
	if a.Intent != domain.IntentTechnical || a.Degraded {
		t.Errorf("Intent/Degraded = %v/%v", a.Intent, a.Degraded)
	}
	if a.SessionKey != "session_0001" {
		t.Errorf("SessionKey = %q", a.SessionKey)
	}
	if a.ID == "" {
		t.Error("answer ID not assigned")
	}

	req := pm.generator.gotReq
	if req.SystemPrompt != domain.DefaultSystemPrompt {
		t.Errorf("SystemPrompt = %q", req.SystemPrompt)
	}
	if req.Context != testPackedContext().PromptText() {
		t.Errorf("Context = %q", req.Context)
	}
	if req.Question != "What do you build?" {
		t.Errorf("Question = %q", req.Question)
	}
}

func TestAnswer_BlendedConfidenceUsed(t *testing.T) {
	pm := newPipelineMocks()
	pm.verifier.result = domain.VerificationResult{Confidence: 0.6}
	pm.verifier.blended = 0.42
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "s")

	if a.Confidence != 0.42 {
		t.Errorf("Confidence = %v, want the blend output 0.42", a.Confidence)
	}
}

func TestAnswer_RetrievalUnavailableDegrades(t *testing.T) {
	pm := newPipelineMocks()
	pm.retriever.err = domain.ErrRetrievalUnavailable
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "s")

	if a.Short != domain.DegradedAnswerShort || a.Expanded != domain.DegradedAnswerExpanded {
		t.Errorf("degraded texts not used: %q / %q", a.Short, a.Expanded)
	}
	if a.Confidence != 0 || len(a.Citations) != 0 || !a.Degraded {
		t.Errorf("degraded answer shape wrong: %+v", a)
	}
	if a.Intent != domain.IntentTechnical {
		t.Errorf("Intent = %v, want the original classification", a.Intent)
	}
	if pm.generator.calls != 0 {
		t.Errorf("generator called %d times on a degraded path", pm.generator.calls)
	}
}

func TestAnswer_EmptyRetrievalSkipsGeneration(t *testing.T) {
	pm := newPipelineMocks()
	pm.retriever.snippets = nil
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "s")

	if !a.Degraded || a.Confidence != 0 {
		t.Errorf("expected degraded answer, got %+v", a)
	}
	if pm.generator.calls != 0 {
		t.Errorf("generator called %d times with nothing retrieved", pm.generator.calls)
	}
}

func TestAnswer_GenerationFailureKeepsCitations(t *testing.T) {
	pm := newPipelineMocks()
	pm.generator.err = domain.ErrGenerationUnavailable
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "s")

	if a.Short != domain.DegradedAnswerShort || a.Confidence != 0 || !a.Degraded {
		t.Errorf("expected degraded answer, got %+v", a)
	}
	if len(a.Citations) != 2 {
		t.Errorf("Citations = %+v, want the packed context's two for diagnostics", a.Citations)
	}
}

func TestAnswer_MalformedReplyFallsBackToRawText(t *testing.T) {
	pm := newPipelineMocks()
	pm.generator.result = domain.GenerationResult{Text: "I think the answer is 42.", TotalTokens: 7}
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "s")

	if a.Short != domain.MalformedAnswerShort {
		t.Errorf("Short = %q, want the malformed-reply text", a.Short)
	}
	if a.Expanded != "I think the answer is 42." {
		t.Errorf("Expanded = %q, want the raw reply", a.Expanded)
	}
	if len(a.Citations) != 2 {
		t.Errorf("Citations = %+v, want backfill from packed blocks", a.Citations)
	}
	if pm.verifier.gotText != "I think the answer is 42." {
		t.Errorf("verifier saw %q, want the delivered expanded text", pm.verifier.gotText)
	}
	if a.Degraded {
		t.Error("malformed reply is a served answer, not a degraded one")
	}
}

func TestAnswer_BackfillsCitationsWhenModelOmitsThem(t *testing.T) {
	pm := newPipelineMocks()
	pm.generator.result = domain.GenerationResult{
		Text: `{"answer_short": "S.", "answer_expanded": "E.", "citations": [], "confidence": 0.9}`,
	}
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "s")

	if len(a.Citations) != 2 || a.Citations[1].Section != "Mentoring" {
		t.Errorf("Citations = %+v, want both packed citations", a.Citations)
	}
}

func TestAnswer_TouchesSession(t *testing.T) {
	pm := newPipelineMocks()
	sessions := newMockSessions()
	svc := pm.service(sessions)

	svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "session_0042")

	if sessions.putCalls != 1 {
		t.Fatalf("session Put called %d times, want 1", sessions.putCalls)
	}
	rec := sessions.records["session_0042"]
	if rec.LastQuestion != "What do you build?" || rec.LastIntent != domain.IntentTechnical {
		t.Errorf("session record = %+v", rec)
	}
	if rec.UpdatedAt.IsZero() {
		t.Error("session record UpdatedAt not set")
	}
}

func TestAnswer_SessionFailureDoesNotFailRequest(t *testing.T) {
	pm := newPipelineMocks()
	sessions := newMockSessions()
	sessions.getErr = errors.New("redis down")
	sessions.putErr = errors.New("redis down")
	svc := pm.service(sessions)

	a := svc.Answer(context.Background(), domain.NewQuestion("What do you build?"), "s")

	if a.Short == "" || a.Degraded {
		t.Errorf("session store failure leaked into the answer: %+v", a)
	}
}

func TestAnswer_RecordsGenerationUsage(t *testing.T) {
	pm := newPipelineMocks()
	pm.generator.result = domain.GenerationResult{Text: validReply, TotalTokens: 123}
	svc := pm.service(nil)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	svc.Answer(ctx, domain.NewQuestion("What do you build?"), "s")

	if usage.GenerationTokens != 123 {
		t.Errorf("GenerationTokens = %d, want 123", usage.GenerationTokens)
	}
}

func TestAnswer_KContextReachesRetriever(t *testing.T) {
	pm := newPipelineMocks()
	svc := pm.service(nil)

	svc.Answer(context.Background(), domain.NewQuestion("q"), "s")
	if pm.retriever.gotK != 6 {
		t.Errorf("default k = %d, want 6", pm.retriever.gotK)
	}

	svc.WithKContext(9).Answer(context.Background(), domain.NewQuestion("q"), "s")
	if pm.retriever.gotK != 9 {
		t.Errorf("k = %d, want 9", pm.retriever.gotK)
	}
}

func TestParseModelAnswer(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		out, err := parseModelAnswer(validReply)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Short != "He builds ranking systems." || len(out.Citations) != 1 {
			t.Errorf("parsed = %+v", out)
		}
	})

	t.Run("fenced payload", func(t *testing.T) {
		out, err := parseModelAnswer("```json\n" + validReply + "\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Expanded != "Ganesh builds ranking systems [1]." {
			t.Errorf("Expanded = %q", out.Expanded)
		}
	})

	t.Run("citations in the wrong shape are dropped", func(t *testing.T) {
		out, err := parseModelAnswer(`{"answer_short": "S", "answer_expanded": "E", "citations": ["1", "2"], "confidence": 0.5}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Citations != nil {
			t.Errorf("Citations = %+v, want none", out.Citations)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := parseModelAnswer(`{"answer_short": "S", "answer_expanded": "E", "citations": []}`)
		if !errors.Is(err, domain.ErrInvalidAnswerPayload) {
			t.Errorf("err = %v, want ErrInvalidAnswerPayload", err)
		}
	})

	t.Run("no JSON object", func(t *testing.T) {
		_, err := parseModelAnswer("plain prose, no braces")
		if !errors.Is(err, domain.ErrInvalidAnswerPayload) {
			t.Errorf("err = %v, want ErrInvalidAnswerPayload", err)
		}
	})

	t.Run("broken JSON", func(t *testing.T) {
		_, err := parseModelAnswer(`{"answer_short": }`)
		if !errors.Is(err, domain.ErrInvalidAnswerPayload) {
			t.Errorf("err = %v, want ErrInvalidAnswerPayload", err)
		}
	})
}

func TestAnswer_DistinctIDsPerDelivery(t *testing.T) {
	pm := newPipelineMocks()
	svc := pm.service(nil)

	a := svc.Answer(context.Background(), domain.NewQuestion("q"), "s")
	b := svc.Answer(context.Background(), domain.NewQuestion("q"), "s")

	if a.ID == b.ID || !strings.Contains(a.ID, "-") {
		t.Errorf("IDs = %q / %q, want distinct UUIDs", a.ID, b.ID)
	}
}
