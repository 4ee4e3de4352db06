package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

type expertFake struct {
	calls     int
	question  domain.Question
	requestID string
	answer    *domain.Answer
	err       error
}

func (f *expertFake) Ask(ctx context.Context, question domain.Question) (*domain.Answer, error) {
	f.calls++
	f.question = question
	f.requestID = domain.RequestIDFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func callTool(t *testing.T, expert *expertFake, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := askHandler(expert)(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: AskToolName, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAskToolReturnsJSONAnswer(t *testing.T) {
	expert := &expertFake{answer: &domain.Answer{Text: "Try Celeste.", Category: "Indie/Retro"}}

	result := callTool(t, expert, map[string]any{
		"message":         "a good indie platformer?",
		"category":        "all",
		"expertise_level": "beginner",
	})
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var got toolAnswer
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode tool answer: %v", err)
	}
	if got.Response != "Try Celeste." || got.Category != "Indie/Retro" {
		t.Fatalf("unexpected answer: %+v", got)
	}
	if expert.question.Category != "all" || expert.question.ExpertiseLevel != domain.ExpertiseBeginner {
		t.Fatalf("unexpected question: %+v", expert.question)
	}
	if expert.requestID == "" {
		t.Fatalf("expected request id in context")
	}
}

func TestAskToolMissingMessageIsToolError(t *testing.T) {
	expert := &expertFake{}

	result := callTool(t, expert, map[string]any{"category": "Strategy"})
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	if expert.calls != 0 {
		t.Fatalf("use case must not be called")
	}
}

func TestAskToolBackendFailureIsToolError(t *testing.T) {
	expert := &expertFake{err: domain.WrapError(domain.ErrUpstreamFailure, "complete", errors.New("timeout"))}

	result := callTool(t, expert, map[string]any{"message": "hi"})
	if !result.IsError {
		t.Fatalf("expected tool error")
	}
	if text := resultText(t, result); !strings.HasPrefix(text, "failed to process your question") {
		t.Fatalf("unexpected error text %q", text)
	}
}

func TestNewServerRegistersTool(t *testing.T) {
	catalog := domain.Catalog{DefaultCategory: "General", Rules: []domain.CategoryRule{{Label: "Strategy", Keywords: []string{"rts"}}}}
	if NewServer(&expertFake{}, catalog) == nil {
		t.Fatalf("expected server")
	}
	tool := askTool(catalog)
	if tool.Name != AskToolName {
		t.Fatalf("unexpected tool name %q", tool.Name)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "message" {
		t.Fatalf("expected message to be required, got %+v", tool.InputSchema.Required)
	}
}
