package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/infrastructure/llm"
	"github.com/kirillkom/game-expert/internal/infrastructure/resilience"
)

const providerName = "openai"

// Client talks to any OpenAI compatible chat completions endpoint.
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

func New(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	headers := map[string]string{}
	if key := strings.TrimSpace(apiKey); key != "" {
		headers["Authorization"] = "Bearer " + key
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		caller: llm.JSONCaller{
			Provider:   providerName,
			HTTPClient: &http.Client{Timeout: timeout},
			Headers:    headers,
		},
		executor: options.ResilienceExecutor,
	}
}

func (c *Client) Name() string { return providerName }

type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	payload := chatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var response chatCompletionResponse
	call := func(callCtx context.Context) error {
		return c.caller.PostJSON(callCtx, c.baseURL+"/chat/completions", payload, &response, "chat completions")
	}
	if err := c.executor.Execute(ctx, "openai.chat_completions", call, llm.ClassifyError); err != nil {
		return nil, llm.WrapTemporaryIfNeeded("openai chat completions", err)
	}

	completion := &domain.Completion{
		Model:            response.Model,
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
		Candidates:       make([]string, 0, len(response.Choices)),
	}
	if completion.Model == "" {
		completion.Model = c.model
	}
	for _, choice := range response.Choices {
		completion.Candidates = append(completion.Candidates, choice.Message.Content)
	}
	return completion, nil
}
