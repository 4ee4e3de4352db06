package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/infrastructure/llm"
	"github.com/kirillkom/game-expert/internal/infrastructure/resilience"
)

const providerName = "gemini"

type Client struct {
	client   *genai.Client
	model    string
	executor *resilience.Executor
}

type Options struct {
	BaseURL            string
	ResilienceExecutor *resilience.Executor
}

func New(ctx context.Context, apiKey, model string, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("gemini model is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL := strings.TrimSpace(options.BaseURL); baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		client:   client,
		model:    model,
		executor: options.ResilienceExecutor,
	}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	system, contents := splitMessages(req.Messages)
	temperature := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       &temperature,
		MaxOutputTokens:   int32(req.MaxTokens),
	}

	var response *genai.GenerateContentResponse
	call := func(callCtx context.Context) error {
		var err error
		response, err = c.client.Models.GenerateContent(callCtx, c.model, contents, config)
		if err != nil {
			return fmt.Errorf("gemini generate content: %w", asStatusError(err))
		}
		return nil
	}
	if err := c.executor.Execute(ctx, "gemini.generate_content", call, llm.ClassifyError); err != nil {
		return nil, llm.WrapTemporaryIfNeeded("gemini generate content", err)
	}

	completion := &domain.Completion{
		Candidates: candidateTexts(response),
		Model:      c.model,
	}
	if response != nil {
		if response.ModelVersion != "" {
			completion.Model = response.ModelVersion
		}
		if usage := response.UsageMetadata; usage != nil {
			completion.PromptTokens = int(usage.PromptTokenCount)
			completion.CompletionTokens = int(usage.CandidatesTokenCount)
		}
	}
	return completion, nil
}

// splitMessages moves system turns into the system instruction, which is
// how Gemini receives them.
func splitMessages(messages []domain.ChatMessage) (*genai.Content, []*genai.Content) {
	var systemParts []*genai.Part
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			systemParts = append(systemParts, &genai.Part{Text: msg.Content})
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	if len(systemParts) == 0 {
		return nil, contents
	}
	return &genai.Content{Parts: systemParts}, contents
}

func candidateTexts(response *genai.GenerateContentResponse) []string {
	if response == nil {
		return nil
	}
	out := make([]string, 0, len(response.Candidates))
	for _, candidate := range response.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text.WriteString(part.Text)
		}
		out = append(out, text.String())
	}
	return out
}

// asStatusError maps SDK API errors onto llm.HTTPStatusError so the shared
// classifier sees the status code.
func asStatusError(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return err
	}
	return &llm.HTTPStatusError{
		Provider:   providerName,
		Operation:  "generate content",
		StatusCode: apiErr.Code,
		Status:     fmt.Sprintf("%d %s", apiErr.Code, http.StatusText(apiErr.Code)),
		Body:       apiErr.Message,
	}
}
