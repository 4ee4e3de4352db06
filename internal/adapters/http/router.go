package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/kirillkom/game-expert/internal/core/domain"
	"github.com/kirillkom/game-expert/internal/core/ports"
	"github.com/kirillkom/game-expert/internal/observability/metrics"
)

const (
	askPath     = "/api/game-expert"
	serviceName = "api"

	// customCategoryLabel stands in for caller supplied categories outside
	// the catalog so metric cardinality stays bounded.
	customCategoryLabel = "custom"

	invalidMessageError = "invalid message"
	processingError     = "failed to process your question"
)

type Options struct {
	Metrics            *metrics.HTTPServerMetrics
	MCPHandler         http.Handler
	CORSAllowedOrigins []string
}

type Router struct {
	expert          ports.GameExpert
	catalog         domain.Catalog
	knownCategories map[string]struct{}
	validator       *contractValidator
	opts            Options
}

func NewRouter(expert ports.GameExpert, catalog domain.Catalog, opts Options) (*Router, error) {
	validator, err := newContractValidator()
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{})
	for _, label := range catalog.CategoryLabels() {
		known[label] = struct{}{}
	}
	return &Router{
		expert:          expert,
		catalog:         catalog,
		knownCategories: known,
		validator:       validator,
		opts:            opts,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc(askPath, rt.gameExpert)
	mux.HandleFunc("/openapi.json", rt.openAPI)
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
	}
	if rt.opts.MCPHandler != nil {
		mux.Handle("/mcp", rt.opts.MCPHandler)
		mux.Handle("/mcp/", rt.opts.MCPHandler)
	}

	var handler http.Handler = mux
	handler = corsMiddleware(handler, rt.opts.CORSAllowedOrigins)
	handler = accessLogMiddleware(handler)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(handler)
}

func corsMiddleware(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(next)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.validator.doc)
}

func (rt *Router) gameExpert(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.describe(w, r)
	case http.MethodPost:
		rt.ask(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

type askRequest struct {
	Message        string `json:"message"`
	Category       string `json:"category"`
	ExpertiseLevel string `json:"expertiseLevel"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	requestID := domain.RequestIDFromContext(r.Context())

	if err := rt.validator.validateAsk(r); err != nil {
		slog.Warn("game_expert_request_rejected",
			"request_id", requestID,
			"error", err,
		)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalidMessageError, Details: validationDetails(err)})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalidMessageError, Details: "invalid json"})
		return
	}

	start := time.Now()
	answer, err := rt.expert.Ask(r.Context(), domain.Question{
		Message:        req.Message,
		Category:       req.Category,
		ExpertiseLevel: domain.ExpertiseLevel(req.ExpertiseLevel),
	})
	elapsed := time.Since(start)
	if err != nil {
		rt.recordFailure(err, elapsed)
		rt.writeAskError(w, requestID, err)
		return
	}
	rt.recordAnswer(answer, elapsed)

	slog.Info("game_expert_answered",
		"request_id", requestID,
		"category", answer.Category,
		"category_source", answer.CategorySource,
		"expertise_level", answer.ExpertiseLevel,
		"provider", answer.Provider,
		"model", answer.Model,
		"duration_ms", elapsed.Milliseconds(),
	)
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) writeAskError(w http.ResponseWriter, requestID string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status == http.StatusBadRequest {
		slog.Warn("game_expert_request_rejected", "request_id", requestID, "error", err)
		writeJSON(w, status, errorResponse{Error: invalidMessageError, Details: err.Error()})
		return
	}
	slog.Error("game_expert_failed", "request_id", requestID, "error", err)
	writeJSON(w, status, errorResponse{Error: processingError, Details: err.Error()})
}

func (rt *Router) recordAnswer(answer *domain.Answer, elapsed time.Duration) {
	if rt.opts.Metrics == nil {
		return
	}
	rt.opts.Metrics.RecordAnswer(serviceName, "http", rt.metricCategory(answer.Category), string(answer.CategorySource), string(answer.ExpertiseLevel), elapsed)
	rt.opts.Metrics.RecordTokenUsage(serviceName, answer.Provider, answer.Model, answer.PromptTokens, answer.CompletionTokens)
}

func (rt *Router) metricCategory(category string) string {
	if _, ok := rt.knownCategories[category]; ok {
		return category
	}
	return customCategoryLabel
}

func (rt *Router) recordFailure(err error, elapsed time.Duration) {
	if rt.opts.Metrics == nil {
		return
	}
	rt.opts.Metrics.RecordFailure(serviceName, "http", failureKind(err), elapsed)
}

func failureKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	case domain.IsKind(err, domain.ErrUpstreamFailure):
		return "upstream_failure"
	default:
		return "internal"
	}
}

type serviceInfo struct {
	Service         string            `json:"service"`
	Description     string            `json:"description"`
	Endpoints       []string          `json:"endpoints"`
	Parameters      map[string]string `json:"parameters"`
	Categories      []string          `json:"categories"`
	ExpertiseLevels []string          `json:"expertiseLevels"`

	ExpertiseDescriptions map[string]string `json:"expertiseDescriptions,omitempty"`
}

func (rt *Router) describe(w http.ResponseWriter, _ *http.Request) {
	levels := make([]string, 0, len(domain.ExpertiseLevels))
	for _, level := range domain.ExpertiseLevels {
		levels = append(levels, string(level))
	}
	var descriptions map[string]string
	if len(rt.catalog.Expertise) > 0 {
		descriptions = make(map[string]string, len(rt.catalog.Expertise))
		for _, item := range rt.catalog.Expertise {
			descriptions[string(item.Level)] = item.Description
		}
	}
	writeJSON(w, http.StatusOK, serviceInfo{
		Service:     "Game Expert API",
		Description: "Answers video game questions calibrated to the requested expertise level.",
		Endpoints: []string{
			fmt.Sprintf("POST %s", askPath),
			fmt.Sprintf("GET %s", askPath),
			"GET /openapi.json",
			"GET /healthz",
		},
		Parameters: map[string]string{
			"message":        "required, the question text",
			"category":       fmt.Sprintf("optional, one of the categories or %q", domain.WildcardCategory),
			"expertiseLevel": "optional, one of the expertise levels",
		},
		Categories:            rt.catalog.CategoryLabels(),
		ExpertiseLevels:       levels,
		ExpertiseDescriptions: descriptions,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
