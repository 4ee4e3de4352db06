package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

func TestUsageRepositoryRecordInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	createdAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO usage_events").
		WithArgs("u-1", "req-1", "Strategy", "requested", "advanced", "ollama", "llama", "ok", int64(150), 10, 20, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUsageRepository(db)
	err = repo.Record(context.Background(), domain.UsageRecord{
		ID:               "u-1",
		RequestID:        "req-1",
		Category:         "Strategy",
		CategorySource:   domain.CategoryRequested,
		ExpertiseLevel:   domain.ExpertiseAdvanced,
		Provider:         "ollama",
		Model:            "llama",
		Status:           domain.UsageOK,
		LatencyMS:        150,
		PromptTokens:     10,
		CompletionTokens: 20,
		CreatedAt:        createdAt,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUsageRepositoryRecordWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	dbErr := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO usage_events").WillReturnError(dbErr)

	err = NewUsageRepository(db).Record(context.Background(), domain.UsageRecord{ID: "u-2", Provider: "openai", Status: domain.UsageOK})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUsageRepositoryEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS usage_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := NewUsageRepository(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
