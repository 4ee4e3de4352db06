package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/core/ports"
)

const (
	serverName    = "game-expert"
	serverVersion = "1.0.0"

	AskToolName = "ask_game_expert"
)

type toolAnswer struct {
	Response string `json:"response"`
	Category string `json:"category"`
}

// NewServer exposes the game expert use case as a single MCP tool.
func NewServer(expert ports.GameExpert, catalog domain.Catalog) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))
	s.AddTool(askTool(catalog), askHandler(expert))
	return s
}

func askTool(catalog domain.Catalog) mcp.Tool {
	levels := make([]string, 0, len(domain.ExpertiseLevels))
	for _, level := range domain.ExpertiseLevels {
		levels = append(levels, string(level))
	}
	return mcp.NewTool(AskToolName,
		mcp.WithDescription("Ask a video game expert a question. Returns the answer and the detected game category."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The question about video games."),
		),
		mcp.WithString("category",
			mcp.Description(fmt.Sprintf("Optional category focus: %s, or %q.",
				strings.Join(catalog.CategoryLabels(), ", "), domain.WildcardCategory)),
		),
		mcp.WithString("expertise_level",
			mcp.Description("Optional answer depth."),
			mcp.Enum(levels...),
		),
	)
}

func askHandler(expert ports.GameExpert) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError("invalid message: " + err.Error()), nil
		}

		requestID := uuid.NewString()
		ctx = domain.ContextWithRequestID(ctx, requestID)

		answer, err := expert.Ask(ctx, domain.Question{
			Message:        message,
			Category:       req.GetString("category", ""),
			ExpertiseLevel: domain.ExpertiseLevel(req.GetString("expertise_level", "")),
		})
		if err != nil {
			if domain.IsKind(err, domain.ErrInvalidInput) {
				return mcp.NewToolResultError("invalid message: " + err.Error()), nil
			}
			slog.Error("mcp_ask_failed", "request_id", requestID, "error", err)
			return mcp.NewToolResultError("failed to process your question: " + err.Error()), nil
		}

		payload, err := json.Marshal(toolAnswer{Response: answer.Text, Category: answer.Category})
		if err != nil {
			return nil, fmt.Errorf("marshal tool answer: %w", err)
		}
		slog.Info("mcp_ask_answered",
			"request_id", requestID,
			"category", answer.Category,
			"provider", answer.Provider,
		)
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// NewHTTPHandler serves the MCP server over streamable HTTP.
func NewHTTPHandler(s *server.MCPServer) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}

// ServeStdio blocks serving the MCP server on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
