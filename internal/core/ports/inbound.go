package ports

import (
	"context"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

// GameExpert is the inbound contract shared by the HTTP and MCP adapters.
type GameExpert interface {
	Ask(ctx context.Context, question domain.Question) (*domain.Answer, error)
}
