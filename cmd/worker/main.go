package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/game-expert/internal/bootstrap"
	"github.com/kirillkom/game-expert/internal/config"
	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/core/ports"
	"github.com/kirillkom/game-expert/internal/observability/logging"
	"github.com/kirillkom/game-expert/internal/observability/metrics"
)

const (
	serviceName  = "worker"
	storeTimeout = 10 * time.Second
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup("game-expert-worker", cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("worker_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.PostgresDSN == "" || cfg.NATSURL == "" {
		return errors.New("worker requires POSTGRES_DSN and NATS_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		return err
	}
	defer worker.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           metricsMux(workerMetrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("worker metrics server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
		return worker.Subscriber.SubscribeUsage(groupCtx, storeUsage(worker.Ledger, workerMetrics))
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("worker_metrics_shutdown_error", "error", err)
		}
		return nil
	})

	return group.Wait()
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func storeUsage(ledger ports.UsageRecorder, m *metrics.WorkerMetrics) func(context.Context, domain.UsageRecord) error {
	return func(ctx context.Context, record domain.UsageRecord) error {
		if record.ID == "" {
			return errors.New("usage record without id")
		}

		storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()

		done := m.TrackStore(record.CreatedAt)
		err := ledger.Record(storeCtx, record)
		done(err)
		if err != nil {
			return fmt.Errorf("store usage %s: %w", record.ID, err)
		}
		slog.Debug("usage_stored", "usage_id", record.ID, "request_id", record.RequestID, "status", record.Status)
		return nil
	}
}
