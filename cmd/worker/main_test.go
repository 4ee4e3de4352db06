package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/observability/metrics"
)

type ledgerFake struct {
	records []domain.UsageRecord
	err     error
}

func (f *ledgerFake) Record(_ context.Context, record domain.UsageRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func TestStoreUsageWritesRecord(t *testing.T) {
	ledger := &ledgerFake{}
	m := metrics.NewWorkerMetrics(serviceName)
	handler := storeUsage(ledger, m)
	err := handler(context.Background(), domain.UsageRecord{
		ID:        "u-1",
		Status:    domain.UsageOK,
		CreatedAt: time.Now().Add(-time.Second),
	})
	if err != nil {
		t.Fatalf("store error = %v", err)
	}
	if len(ledger.records) != 1 || ledger.records[0].ID != "u-1" {
		t.Fatalf("unexpected ledger writes: %+v", ledger.records)
	}

	res := httptest.NewRecorder()
	metricsMux(m).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(res.Body.String(), `status="success"} 1`) {
		t.Fatalf("expected success counter:\n%s", res.Body.String())
	}
}

func TestStoreUsageRejectsRecordWithoutID(t *testing.T) {
	ledger := &ledgerFake{}
	handler := storeUsage(ledger, metrics.NewWorkerMetrics(serviceName))

	if err := handler(context.Background(), domain.UsageRecord{}); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if len(ledger.records) != 0 {
		t.Fatalf("ledger must not be called")
	}
}

func TestStoreUsagePropagatesLedgerError(t *testing.T) {
	ledger := &ledgerFake{err: errors.New("db down")}
	handler := storeUsage(ledger, metrics.NewWorkerMetrics(serviceName))

	err := handler(context.Background(), domain.UsageRecord{ID: "u-2"})
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected ledger error, got %v", err)
	}
}
