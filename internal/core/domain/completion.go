package domain

import "time"

type ChatRole string

const (
	RoleSystem ChatRole = "system"
	RoleUser   ChatRole = "user"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// CompletionRequest is the provider-neutral outbound call.
type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// Completion holds the candidate texts in provider order.
type Completion struct {
	Candidates       []string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// FirstText returns the first candidate, or "" when there is none.
func (c *Completion) FirstText() string {
	if c == nil || len(c.Candidates) == 0 {
		return ""
	}
	return c.Candidates[0]
}

// GenerationLimits are the sampling and time bounds for one backend call.
type GenerationLimits struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}
