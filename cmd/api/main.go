package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/kirillkom/game-expert/internal/adapters/http"
	mcpadapter "github.com/kirillkom/game-expert/internal/adapters/mcp"
	"github.com/kirillkom/game-expert/internal/bootstrap"
	"github.com/kirillkom/game-expert/internal/config"
	"github.com/kirillkom/game-expert/internal/observability/logging"
	"github.com/kirillkom/game-expert/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup("game-expert-api", cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("api_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := httpadapter.Options{
		Metrics:            metrics.NewHTTPServerMetrics("api"),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.MCPEnabled {
		opts.MCPHandler = mcpadapter.NewHTTPHandler(mcpadapter.NewServer(app.Expert, app.Catalog))
	}
	router, err := httpadapter.NewRouter(app.Expert, app.Catalog, opts)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.APIWriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		return err
	}
	if cfg.APIMaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.APIMaxConnections)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("api_listening",
			"port", cfg.APIPort,
			"max_connections", cfg.APIMaxConnections,
			"mcp_enabled", cfg.MCPEnabled,
		)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("api_shutdown_error", "error", err)
		}
		return nil
	})

	return group.Wait()
}
