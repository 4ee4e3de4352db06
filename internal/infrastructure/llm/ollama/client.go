package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/infrastructure/llm"
	"github.com/kirillkom/game-expert/internal/infrastructure/resilience"
)

const providerName = "ollama"

type Client struct {
	baseURL  string
	model    string
	caller   llm.JSONCaller
	executor *resilience.Executor
}

type Options struct {
	HTTPTimeout        time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string) *Client {
	return NewWithOptions(baseURL, model, Options{})
}

func NewWithOptions(baseURL, model string, options Options) *Client {
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		caller: llm.JSONCaller{
			Provider:   providerName,
			HTTPClient: &http.Client{Timeout: timeout},
		},
		executor: options.ResilienceExecutor,
	}
}

func (c *Client) Name() string { return providerName }

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
	Options  chatOptions          `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// Complete calls /api/chat without streaming. Ollama returns a single
// message, which becomes the only candidate when it has content.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: req.Messages,
		Stream:   false,
		Options: chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	var response chatResponse
	call := func(callCtx context.Context) error {
		return c.caller.PostJSON(callCtx, c.baseURL+"/api/chat", payload, &response, "chat")
	}
	if err := c.executor.Execute(ctx, "ollama.chat", call, llm.ClassifyError); err != nil {
		return nil, llm.WrapTemporaryIfNeeded("ollama chat", err)
	}

	completion := &domain.Completion{
		Model:            response.Model,
		PromptTokens:     response.PromptEvalCount,
		CompletionTokens: response.EvalCount,
	}
	if completion.Model == "" {
		completion.Model = c.model
	}
	if content := response.Message.Content; strings.TrimSpace(content) != "" {
		completion.Candidates = []string{content}
	}
	return completion, nil
}
