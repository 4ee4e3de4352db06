package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/game-expert/internal/adapters/mcp"
	"github.com/kirillkom/game-expert/internal/bootstrap"
	"github.com/kirillkom/game-expert/internal/config"
	"github.com/kirillkom/game-expert/internal/observability/logging"
)

// stdout carries the MCP protocol, so logs go to stderr.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "game-expert-mcp", cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("mcp_exit", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("mcp_exit", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := mcpadapter.ServeStdio(mcpadapter.NewServer(app.Expert, app.Catalog)); err != nil {
		slog.Error("mcp_exit", "error", err)
		app.Close()
		os.Exit(1)
	}
}
