package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/game-expert/internal/config"
	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/core/ports"
	"github.com/kirillkom/game-expert/internal/core/usecase"
	"github.com/kirillkom/game-expert/internal/infrastructure/catalog"
	"github.com/kirillkom/game-expert/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/game-expert/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/game-expert/internal/infrastructure/llm/openai"
	"github.com/kirillkom/game-expert/internal/infrastructure/queue/nats"
	"github.com/kirillkom/game-expert/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/game-expert/internal/infrastructure/resilience"
)

type App struct {
	Config  config.Config
	Catalog domain.Catalog
	Expert  ports.GameExpert

	closers []func()
}

// New wires the question answering path used by the API and MCP binaries.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	app.Catalog = cat

	executor := resilience.NewExecutor(breakerConfig(cfg))
	backend, err := newBackend(ctx, cfg, executor)
	if err != nil {
		return nil, err
	}

	recorder, err := app.newRecorder(ctx, cfg, executor)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Expert = usecase.NewGameExpertUseCase(cat, backend, recorder, domain.GenerationLimits{
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     cfg.LLMTimeout(),
	})

	slog.Info("bootstrap_ready",
		"provider", backend.Name(),
		"usage_sink", cfg.UsageSink,
		"categories", len(cat.Rules),
		"breaker_enabled", cfg.LLMBreakerEnabled,
	)
	return app, nil
}

type Worker struct {
	Subscriber ports.UsageSubscriber
	Ledger     ports.UsageRecorder

	closers []func()
}

// NewWorker wires the usage ledger consumer: NATS in, Postgres out.
func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	db, repo, err := openLedger(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init usage queue: %w", err)
	}

	return &Worker{
		Subscriber: queue,
		Ledger:     repo,
		closers: []func(){
			queue.Close,
			func() { _ = db.Close() },
		},
	}, nil
}

func (w *Worker) Close() {
	for _, closeFn := range w.closers {
		closeFn()
	}
}

func (a *App) Close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
	a.closers = nil
}

func loadCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("load default catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

func breakerConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.Enabled = cfg.LLMBreakerEnabled
	if cfg.LLMBreakerMinRequests > 0 {
		out.MinRequests = uint32(cfg.LLMBreakerMinRequests)
	}
	if cfg.LLMBreakerFailureRatio > 0 {
		out.FailureRatio = cfg.LLMBreakerFailureRatio
	}
	if cfg.LLMBreakerOpenTimeoutSecs > 0 {
		out.OpenTimeout = time.Duration(cfg.LLMBreakerOpenTimeoutSecs) * time.Second
	}
	return out
}

func newBackend(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.CompletionBackend, error) {
	httpTimeout := cfg.BackendHTTPTimeout()

	switch cfg.LLMProvider {
	case "ollama":
		return ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			HTTPTimeout:        httpTimeout,
			ResilienceExecutor: executor,
		}), nil
	case "openai":
		return openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, openai.Options{
			HTTPTimeout:        httpTimeout,
			ResilienceExecutor: executor,
		}), nil
	case "gemini":
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, gemini.Options{
			BaseURL:            cfg.GeminiBaseURL,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini backend: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

func (a *App) newRecorder(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.UsageRecorder, error) {
	switch cfg.UsageSink {
	case "", "none":
		return nil, nil
	case "nats":
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			return nil, fmt.Errorf("init usage queue: %w", err)
		}
		a.closers = append(a.closers, queue.Close)
		return queue, nil
	case "postgres":
		db, repo, err := openLedger(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported usage sink %q", cfg.UsageSink)
	}
}

func openLedger(ctx context.Context, dsn string) (*sql.DB, *postgres.UsageRepository, error) {
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewUsageRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, repo, nil
}
