package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/infrastructure/llm"
	"github.com/kirillkom/game-expert/internal/infrastructure/resilience"
)

func TestSplitMessagesMovesSystemTurn(t *testing.T) {
	system, contents := splitMessages([]domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be an expert"},
		{Role: domain.RoleUser, Content: "best mage build?"},
	})
	if system == nil || len(system.Parts) != 1 || system.Parts[0].Text != "be an expert" {
		t.Fatalf("unexpected system instruction: %+v", system)
	}
	if len(contents) != 1 || contents[0].Parts[0].Text != "best mage build?" {
		t.Fatalf("unexpected contents: %+v", contents)
	}
}

func TestSplitMessagesWithoutSystem(t *testing.T) {
	system, contents := splitMessages([]domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}})
	if system != nil {
		t.Fatalf("expected no system instruction")
	}
	if len(contents) != 1 {
		t.Fatalf("expected one content, got %d", len(contents))
	}
}

func TestCandidateTextsJoinsParts(t *testing.T) {
	response := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "Hello "}, {Text: "world"}}}},
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
		},
	}
	got := candidateTexts(response)
	if len(got) != 2 || got[0] != "Hello world" || got[1] != "second" {
		t.Fatalf("unexpected candidates: %v", got)
	}
	if candidateTexts(nil) != nil {
		t.Fatalf("expected nil for nil response")
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), "", "gemini-2.0-flash", Options{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

type generateContentBody struct {
	SystemInstruction struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"systemInstruction"`
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func TestCompleteSendsSystemInstructionAndLimits(t *testing.T) {
	var captured generateContentBody
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			http.NotFound(w, r)
			return
		}
		apiKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"Rush the "},{"text":"objective."}]}}],
			"usageMetadata":{"promptTokenCount":7,"candidatesTokenCount":3},
			"modelVersion":"gemini-test-001"
		}`))
	}))
	defer server.Close()

	client, err := New(context.Background(), "test-key", "gemini-test", Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	completion, err := client.Complete(context.Background(), domain.CompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "be a game expert"},
			{Role: domain.RoleUser, Content: "how to win?"},
		},
		Temperature: 0.5,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if apiKey != "test-key" {
		t.Fatalf("expected api key header, got %q", apiKey)
	}
	if len(captured.SystemInstruction.Parts) != 1 || captured.SystemInstruction.Parts[0].Text != "be a game expert" {
		t.Fatalf("unexpected system instruction: %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 1 || captured.Contents[0].Parts[0].Text != "how to win?" {
		t.Fatalf("unexpected contents: %+v", captured.Contents)
	}
	if captured.GenerationConfig.Temperature != 0.5 || captured.GenerationConfig.MaxOutputTokens != 256 {
		t.Fatalf("unexpected generation config: %+v", captured.GenerationConfig)
	}
	if completion.FirstText() != "Rush the objective." {
		t.Fatalf("unexpected candidate %q", completion.FirstText())
	}
	if completion.Model != "gemini-test-001" || completion.PromptTokens != 7 || completion.CompletionTokens != 3 {
		t.Fatalf("unexpected completion metadata: %+v", completion)
	}
}

func TestCompleteServiceUnavailableTripsBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"model overloaded","status":"UNAVAILABLE"}}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		Enabled:      true,
		MinRequests:  1,
		FailureRatio: 0.5,
		OpenTimeout:  time.Minute,
	})
	client, err := New(context.Background(), "test-key", "gemini-test", Options{
		BaseURL:            server.URL,
		ResilienceExecutor: executor,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Complete(context.Background(), domain.CompletionRequest{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}},
	})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	var statusErr *llm.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 status error, got %v", err)
	}
	if state := executor.State("gemini.generate_content"); state != "open" {
		t.Fatalf("expected breaker to record the failure and open, got %s", state)
	}
}
