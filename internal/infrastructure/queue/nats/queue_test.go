package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

func TestUsageRecordCodecRoundTrip(t *testing.T) {
	record := domain.UsageRecord{
		ID:             "u-1",
		RequestID:      "req-1",
		Category:       "Strategy",
		CategorySource: domain.CategoryRequested,
		ExpertiseLevel: domain.ExpertiseAdvanced,
		Provider:       "ollama",
		Status:         domain.UsageOK,
		LatencyMS:      120,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	payload, err := encodeUsage(record)
	if err != nil {
		t.Fatalf("encodeUsage() error = %v", err)
	}
	got, err := decodeUsage(payload)
	if err != nil {
		t.Fatalf("decodeUsage() error = %v", err)
	}
	if !got.CreatedAt.Equal(record.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, record.CreatedAt)
	}
	got.CreatedAt = record.CreatedAt
	if got != record {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, record)
	}
}

func TestDecodeUsageRejectsMissingID(t *testing.T) {
	if _, err := decodeUsage([]byte(`{"status":"ok"}`)); err == nil {
		t.Fatalf("expected error for record without id")
	}
	if _, err := decodeUsage([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}

	permanent := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(permanent); got != permanent {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
}

func TestRecordWithoutConnectionFails(t *testing.T) {
	q := &Queue{subject: "game_expert.usage"}

	err := q.Record(context.Background(), domain.UsageRecord{ID: "u-1", Status: domain.UsageOK})
	if !errors.Is(err, nats.ErrInvalidConnection) {
		t.Fatalf("expected invalid connection error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("missing connection must not be reported as temporary")
	}
}
