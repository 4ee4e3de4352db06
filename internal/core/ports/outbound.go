package ports

import (
	"context"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

// CompletionBackend turns a chat exchange into candidate texts.
type CompletionBackend interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error)
	Name() string
}

// UsageRecorder accepts per-request usage records.
type UsageRecorder interface {
	Record(ctx context.Context, record domain.UsageRecord) error
}

// UsageSubscriber delivers usage records published by API instances.
type UsageSubscriber interface {
	SubscribeUsage(ctx context.Context, handler func(context.Context, domain.UsageRecord) error) error
}
