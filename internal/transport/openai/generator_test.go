package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// Wire shapes of the OpenAI-compatible chat completions endpoint.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func chatServer(t *testing.T, reply string, gotReq *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("request hit %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want the configured bearer key", got)
		}
		if gotReq != nil {
			if err := json.NewDecoder(r.Body).Decode(gotReq); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}

		var resp chatResponse
		resp.ID = "gen-1"
		resp.Object = "chat.completion"
		resp.Choices = append(resp.Choices, struct {
			Index        int         `json:"index"`
			Message      chatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		}{
			Message:      chatMessage{Role: "assistant", Content: reply},
			FinishReason: "stop",
		})
		resp.Usage.PromptTokens = 200
		resp.Usage.CompletionTokens = 80
		resp.Usage.TotalTokens = 280

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestGenerator(baseURL string) *Generator {
	return NewGenerator(&GeneratorConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "openai/gpt-oss-20b",
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   1000,
	})
}

func TestGenerateBuildsChatRequest(t *testing.T) {
	var gotReq chatRequest
	server := chatServer(t, `{"answer_short": "ok"}`, &gotReq)
	defer server.Close()

	result, err := newTestGenerator(server.URL).Generate(context.Background(), domain.GenerationRequest{
		SystemPrompt: "You are GANI.",
		Context:      "[1] Ganesh builds ranking systems.\n(source: https://a.example)",
		Question:     "What does Ganesh build?",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if result.Text != `{"answer_short": "ok"}` {
		t.Errorf("Text = %q", result.Text)
	}
	if result.PromptTokens != 200 || result.CompletionTokens != 80 || result.TotalTokens != 280 {
		t.Errorf("usage = %d/%d/%d, expected 200/80/280",
			result.PromptTokens, result.CompletionTokens, result.TotalTokens)
	}

	if gotReq.Model != "openai/gpt-oss-20b" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.2 || gotReq.TopP != 0.9 || gotReq.MaxTokens != 1000 {
		t.Errorf("sampling params = %v/%v/%d", gotReq.Temperature, gotReq.TopP, gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "You are GANI." {
		t.Errorf("system message = %+v", gotReq.Messages[0])
	}
	user := gotReq.Messages[1]
	if user.Role != "user" {
		t.Errorf("user role = %q", user.Role)
	}
	if !strings.HasPrefix(user.Content, "Context:\n[1] Ganesh builds ranking systems.") {
		t.Errorf("user content missing context prefix: %q", user.Content)
	}
	if !strings.HasSuffix(user.Content, "\n\nQuestion: What does Ganesh build?") {
		t.Errorf("user content missing question suffix: %q", user.Content)
	}
}

func TestGenerateSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream unavailable", "type": "server_error"},
		})
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), domain.GenerationRequest{Question: "q"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("err = %v, want ErrGenerationUnavailable", err)
	}
	if !strings.Contains(err.Error(), "upstream unavailable") {
		t.Errorf("err = %v, want the provider message surfaced", err)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{ID: "gen-2", Object: "chat.completion"})
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), domain.GenerationRequest{Question: "q"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("err = %v, want ErrGenerationUnavailable for empty choices", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "openai/gpt-oss-20b",
		Timeout: 10 * time.Millisecond,
	})

	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Question: "q"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("err = %v, want ErrGenerationUnavailable on timeout", err)
	}
}
