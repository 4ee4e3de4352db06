package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/core/ports"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000

	usageRecordTimeout = 2 * time.Second
)

type GameExpertUseCase struct {
	baseDirective string
	classifier    *CategoryClassifier
	backend       ports.CompletionBackend
	recorder      ports.UsageRecorder
	limits        domain.GenerationLimits
	now           func() time.Time
}

func NewGameExpertUseCase(
	catalog domain.Catalog,
	backend ports.CompletionBackend,
	recorder ports.UsageRecorder,
	limits domain.GenerationLimits,
) *GameExpertUseCase {
	if limits.Temperature < 0 {
		limits.Temperature = defaultTemperature
	}
	if limits.MaxTokens <= 0 {
		limits.MaxTokens = defaultMaxTokens
	}

	return &GameExpertUseCase{
		baseDirective: catalog.BaseDirective,
		classifier:    NewCategoryClassifier(catalog.Rules, catalog.DefaultCategory),
		backend:       backend,
		recorder:      recorder,
		limits:        limits,
		now:           time.Now,
	}
}

// Ask answers one question with exactly one backend call.
func (uc *GameExpertUseCase) Ask(ctx context.Context, question domain.Question) (*domain.Answer, error) {
	startedAt := uc.now()
	record := domain.UsageRecord{
		RequestID: domain.RequestIDFromContext(ctx),
		Provider:  uc.backend.Name(),
	}

	answer, err := uc.ask(ctx, question, &record)
	switch {
	case err == nil:
		record.Status = domain.UsageOK
	case domain.IsKind(err, domain.ErrInvalidInput):
		record.Status = domain.UsageInvalidInput
	default:
		record.Status = domain.UsageUpstreamFailure
	}
	record.LatencyMS = uc.now().Sub(startedAt).Milliseconds()
	uc.recordUsage(ctx, record)

	return answer, err
}

func (uc *GameExpertUseCase) ask(ctx context.Context, question domain.Question, record *domain.UsageRecord) (*domain.Answer, error) {
	if strings.TrimSpace(question.Message) == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "ask", "message is required")
	}
	level, err := domain.ParseExpertiseLevel(string(question.ExpertiseLevel))
	if err != nil {
		return nil, err
	}
	record.ExpertiseLevel = level

	prompt := ComposePrompt(uc.baseDirective, question.Category, level, question.Message)

	callCtx := ctx
	if uc.limits.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, uc.limits.Timeout)
		defer cancel()
	}

	completion, err := uc.backend.Complete(callCtx, domain.CompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: prompt},
			{Role: domain.RoleUser, Content: question.Message},
		},
		Temperature: uc.limits.Temperature,
		MaxTokens:   uc.limits.MaxTokens,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstreamFailure, "complete", err)
	}
	if completion == nil {
		completion = &domain.Completion{}
	}
	record.Model = completion.Model
	record.PromptTokens = completion.PromptTokens
	record.CompletionTokens = completion.CompletionTokens

	text := completion.FirstText()
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewError(domain.ErrUpstreamFailure, "complete", "backend returned no usable text")
	}

	category, source := uc.classifier.Classify(question.Message, question.Category)
	record.Category = category
	record.CategorySource = source

	return &domain.Answer{
		Text:             text,
		Category:         category,
		CategorySource:   source,
		ExpertiseLevel:   level,
		Provider:         uc.backend.Name(),
		Model:            completion.Model,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
	}, nil
}

func (uc *GameExpertUseCase) recordUsage(ctx context.Context, record domain.UsageRecord) {
	if uc.recorder == nil {
		return
	}
	record.ID = uuid.NewString()
	record.CreatedAt = uc.now().UTC()

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageRecordTimeout)
	defer cancel()
	if err := uc.recorder.Record(recordCtx, record); err != nil {
		slog.Warn("usage_record_failed",
			"request_id", record.RequestID,
			"status", record.Status,
			"error", err,
		)
	}
}
