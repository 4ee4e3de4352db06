package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

// UsageRepository stores usage records. Message and response text are never
// part of a record.
type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS usage_events (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	category_source TEXT NOT NULL DEFAULT '',
	expertise_level TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	latency_ms BIGINT NOT NULL,
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_events_created_at ON usage_events (created_at);
CREATE INDEX IF NOT EXISTS idx_usage_events_category ON usage_events (category);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create usage schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Record inserts a usage record. Redelivered records are ignored.
func (r *UsageRepository) Record(ctx context.Context, record domain.UsageRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO usage_events (
	id, request_id, category, category_source, expertise_level, provider, model,
	status, latency_ms, prompt_tokens, completion_tokens, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO NOTHING
`,
		record.ID,
		record.RequestID,
		record.Category,
		string(record.CategorySource),
		string(record.ExpertiseLevel),
		record.Provider,
		record.Model,
		string(record.Status),
		record.LatencyMS,
		record.PromptTokens,
		record.CompletionTokens,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}
