package answer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
	"github.com/ganeshmamidipalli/GANI/internal/metrics"
)

// Service runs the full question pipeline: classify, retrieve, pack,
// generate, verify. Every external failure is absorbed into a degraded
// answer, so Answer has no error path.
type Service struct {
	classify Classifier
	retrieve Retriever
	pack     Packer
	generate domain.Generator
	verify   Verifier
	sessions SessionStore

	kContext     int
	systemPrompt string
	logger       *zap.Logger
}

// New creates the pipeline service. sessions may be nil to disable
// conversation memory.
func New(
	classifier Classifier, retriever Retriever, packer Packer,
	generator domain.Generator, verifier Verifier, sessions SessionStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		classify: classifier, retrieve: retriever, pack: packer,
		generate: generator, verify: verifier, sessions: sessions,
		kContext:     domain.DefaultRetrievalConfig().KContext,
		systemPrompt: domain.DefaultSystemPrompt,
		logger:       logger,
	}
}

// WithKContext configures how many ranked snippets reach the packer.
func (s *Service) WithKContext(k int) *Service {
	if k > 0 {
		s.kContext = k
	}
	return s
}

// WithSystemPrompt overrides the default system prompt.
func (s *Service) WithSystemPrompt(prompt string) *Service {
	if prompt != "" {
		s.systemPrompt = prompt
	}
	return s
}

// Answer produces the final response for one question. Degradation policy:
// unavailable or empty retrieval serves the fixed fallback texts without a
// completion call; a failed completion serves the same texts but keeps the
// packed citations for diagnostics.
func (s *Service) Answer(ctx context.Context, q domain.Question, sessionKey string) domain.Answer {
	intent := s.classify.Classify(q)

	snippets, err := s.retrieve.Retrieve(ctx, q, intent, s.kContext)
	if err != nil {
		s.logger.Warn("Retrieval unavailable, serving degraded answer",
			zap.String("intent", intent.String()), zap.Error(err))
		return s.deliver(ctx, q, domain.DegradedAnswer(intent, sessionKey))
	}
	if len(snippets) == 0 {
		s.logger.Info("No relevant snippets found",
			zap.String("intent", intent.String()), zap.String("question", q.Raw()))
		return s.deliver(ctx, q, domain.DegradedAnswer(intent, sessionKey))
	}

	packed := s.pack.Pack(snippets)

	gen, err := s.generate.Generate(ctx, domain.GenerationRequest{
		SystemPrompt: s.systemPrompt,
		Context:      packed.PromptText(),
		Question:     q.Raw(),
	})
	if err != nil {
		s.logger.Warn("Generation unavailable, serving degraded answer",
			zap.String("intent", intent.String()), zap.Error(err))
		return s.deliver(ctx, q, domain.UngeneratedAnswer(intent, sessionKey, packed.Citations()))
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(gen.TotalTokens)

	a := s.assemble(gen.Text, packed, intent, sessionKey)

	verdict := s.verify.Verify(a.Expanded, packed)
	a.Confidence = s.verify.BlendModelHint(verdict.Confidence)
	s.logger.Debug("Answer verified",
		zap.String("intent", intent.String()),
		zap.Float64("confidence", a.Confidence),
		zap.Int("supported_citations", len(verdict.SupportedCitations)),
		zap.Int("unsupported_citations", len(verdict.UnsupportedCitations)),
		zap.Int("ungrounded_sentences", verdict.UngroundedSentences))

	return s.deliver(ctx, q, a)
}

// assemble builds the answer from the model reply, falling back to the raw
// text as the expanded answer when the reply is not the expected JSON.
// Citations missing from the reply are backfilled from the packed blocks.
func (s *Service) assemble(replyText string, packed domain.PackedContext, intent domain.Intent, sessionKey string) domain.Answer {
	a := domain.Answer{Intent: intent, SessionKey: sessionKey}

	parsed, err := parseModelAnswer(replyText)
	if err != nil {
		s.logger.Warn("Model reply not in the expected shape", zap.Error(err))
		a.Short = domain.MalformedAnswerShort
		a.Expanded = replyText
		a.Citations = packed.Citations()
		return a
	}

	a.Short = parsed.Short
	a.Expanded = parsed.Expanded
	a.Citations = parsed.Citations
	if len(a.Citations) == 0 {
		a.Citations = packed.Citations()
	}
	return a
}

func (s *Service) deliver(ctx context.Context, q domain.Question, a domain.Answer) domain.Answer {
	a.ID = uuid.NewString()

	outcome := "ok"
	if a.Degraded {
		outcome = "degraded"
	}
	metrics.QuestionsTotal.WithLabelValues(a.Intent.String(), outcome).Inc()
	metrics.AnswerConfidence.Observe(a.Confidence)

	s.touchSession(ctx, q, a)
	return a
}

// touchSession refreshes conversation memory. Best-effort: failures are
// logged and never fail the request.
func (s *Service) touchSession(ctx context.Context, q domain.Question, a domain.Answer) {
	if s.sessions == nil || a.SessionKey == "" {
		return
	}

	if prev, err := s.sessions.Get(ctx, a.SessionKey); err == nil {
		s.logger.Debug("Returning session",
			zap.String("session", a.SessionKey),
			zap.String("last_intent", prev.LastIntent.String()))
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.Warn("Session read failed", zap.String("session", a.SessionKey), zap.Error(err))
	}

	rec := domain.SessionRecord{
		Key:          a.SessionKey,
		LastQuestion: q.Raw(),
		LastIntent:   a.Intent,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, rec); err != nil {
		s.logger.Warn("Session write failed", zap.String("session", a.SessionKey), zap.Error(err))
	}
}
