package domain

import "time"

type UsageStatus string

const (
	UsageOK              UsageStatus = "ok"
	UsageInvalidInput    UsageStatus = "invalid_input"
	UsageUpstreamFailure UsageStatus = "upstream_failure"
)

// UsageRecord describes one handled question for operational accounting.
// It never carries message or response text.
type UsageRecord struct {
	ID               string         `json:"id"`
	RequestID        string         `json:"request_id,omitempty"`
	Category         string         `json:"category,omitempty"`
	CategorySource   CategorySource `json:"category_source,omitempty"`
	ExpertiseLevel   ExpertiseLevel `json:"expertise_level,omitempty"`
	Provider         string         `json:"provider"`
	Model            string         `json:"model,omitempty"`
	Status           UsageStatus    `json:"status"`
	LatencyMS        int64          `json:"latency_ms"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	CreatedAt        time.Time      `json:"created_at"`
}
