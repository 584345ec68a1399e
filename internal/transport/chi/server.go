package chi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
	logpkg "github.com/ganeshmamidipalli/GANI/internal/logger"
	answeruc "github.com/ganeshmamidipalli/GANI/internal/usecase/answer"
	healthuc "github.com/ganeshmamidipalli/GANI/internal/usecase/health"
	statsuc "github.com/ganeshmamidipalli/GANI/internal/usecase/stats"
	"github.com/ganeshmamidipalli/GANI/internal/version"
)

// Error codes returned in JSON error bodies.
type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeValidationFailed     errorCode = "validation_failed"
	codeUnauthorized         errorCode = "unauthorized"
	codeNamespaceUnavailable errorCode = "namespace_unavailable"
	codeInternalError        errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	AnswerShort    string            `json:"answer_short"`
	AnswerExpanded string            `json:"answer_expanded"`
	Citations      []domain.Citation `json:"citations"`
	Confidence     float64           `json:"confidence"`
	Intent         string            `json:"intent"`
	SessionID      string            `json:"session_id"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type bannerResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the question pipeline over HTTP.
type Server struct {
	answers       *answeruc.Service
	health        *healthuc.Service
	stats         *statsuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answers *answeruc.Service,
	health *healthuc.Service,
	stats *statsuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answers: answers,
		health:  health,
		stats:   stats,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNamespaceUnavailable, http.StatusServiceUnavailable, codeNamespaceUnavailable),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, codeNamespaceUnavailable),
	}
	return s
}

// Routes mounts every endpoint on the router. Middleware stays with the
// caller so binaries can compose their own chains.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Post("/chat", s.Chat)
	r.Get("/health", s.HealthCheck)
	r.Get("/stats", s.Stats)
	r.Get("/metrics", s.Metrics)
}

// Chat handles POST /chat. The pipeline absorbs retrieval and generation
// failures into degraded answers, so only a malformed request produces a
// non-200 response.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Question is required")
		return
	}

	sessionKey := domain.SessionKey(clientIP(r), r.UserAgent())

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans := s.answers.Answer(ctx, domain.NewQuestion(req.Question), sessionKey)

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, chatResponse{
		AnswerShort:    ans.Short,
		AnswerExpanded: ans.Expanded,
		Citations:      ans.Citations,
		Confidence:     ans.Confidence,
		Intent:         ans.Intent.String(),
		SessionID:      ans.SessionKey,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := s.stats.Report(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Root handles GET / with the service banner.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, bannerResponse{
		Message: "GANI Chatbot API",
		Version: version.Version,
		Status:  "healthy",
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// clientIP returns the peer address without the port. Session keys are
// derived from it, so the same caller keeps the same session.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage == nil || !usage.Used {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.GenerationTokens))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNamespaceUnavailable,
		domain.ErrRetrievalUnavailable,
		domain.ErrEmbeddingUnavailable,
		domain.ErrGenerationUnavailable,
		domain.ErrTokenBudgetExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			// Request-scoped logger carries the request id from middleware.
			logpkg.FromContext(r.Context()).Warn("Request served an upstream failure", zap.Error(err))
			return
		}
	}
	s.logger.Error("Unhandled pipeline error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
