package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	APIPort            string   `validate:"required,numeric"`
	LogLevel           string   `validate:"omitempty,oneof=debug info warn warning error"`
	APIMaxConnections  int      `validate:"gte=0"`
	CORSAllowedOrigins []string `validate:"dive,required"`
	MCPEnabled         bool

	CatalogPath string

	LLMProvider               string  `validate:"oneof=ollama openai gemini"`
	LLMTemperature            float64 `validate:"gte=0,lte=2"`
	LLMMaxTokens              int     `validate:"gt=0"`
	LLMTimeoutSeconds         int     `validate:"gt=0"`
	LLMBreakerEnabled         bool
	LLMBreakerMinRequests     int     `validate:"gte=0"`
	LLMBreakerFailureRatio    float64 `validate:"gte=0,lte=1"`
	LLMBreakerOpenTimeoutSecs int     `validate:"gte=0"`

	OllamaURL   string `validate:"required_if=LLMProvider ollama,omitempty,url"`
	OllamaModel string `validate:"required_if=LLMProvider ollama"`

	OpenAIBaseURL string `validate:"required_if=LLMProvider openai,omitempty,url"`
	OpenAIAPIKey  string
	OpenAIModel   string `validate:"required_if=LLMProvider openai"`

	GeminiAPIKey  string `validate:"required_if=LLMProvider gemini"`
	GeminiModel   string `validate:"required_if=LLMProvider gemini"`
	GeminiBaseURL string `validate:"omitempty,url"`

	UsageSink   string `validate:"oneof=none nats postgres"`
	PostgresDSN string `validate:"required_if=UsageSink postgres"`
	NATSURL     string `validate:"required_if=UsageSink nats"`
	NATSSubject string `validate:"required"`

	WorkerMetricsPort string `validate:"required,numeric"`
}

func Load() Config {
	return Config{
		APIPort:            mustEnv("API_PORT", "8080"),
		LogLevel:           mustEnv("LOG_LEVEL", "info"),
		APIMaxConnections:  mustEnvInt("API_MAX_CONNECTIONS", 512),
		CORSAllowedOrigins: mustEnvList("CORS_ALLOWED_ORIGINS", "*"),
		MCPEnabled:         mustEnvBool("MCP_ENABLED", true),

		CatalogPath: mustEnv("CATALOG_PATH", ""),

		LLMProvider:               strings.ToLower(mustEnv("LLM_PROVIDER", "ollama")),
		LLMTemperature:            mustEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:              mustEnvInt("LLM_MAX_TOKENS", 2000),
		LLMTimeoutSeconds:         mustEnvInt("LLM_TIMEOUT_SECONDS", 90),
		LLMBreakerEnabled:         mustEnvBool("LLM_BREAKER_ENABLED", false),
		LLMBreakerMinRequests:     mustEnvInt("LLM_BREAKER_MIN_REQUESTS", 10),
		LLMBreakerFailureRatio:    mustEnvFloat("LLM_BREAKER_FAILURE_RATIO", 0.5),
		LLMBreakerOpenTimeoutSecs: mustEnvInt("LLM_BREAKER_OPEN_TIMEOUT_SECONDS", 30),

		OllamaURL:   mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: mustEnv("OLLAMA_MODEL", "llama3.1:8b"),

		OpenAIBaseURL: mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  mustEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   mustEnv("OPENAI_MODEL", "gpt-4o-mini"),

		GeminiAPIKey:  mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:   mustEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: mustEnv("GEMINI_BASE_URL", ""),

		UsageSink:   strings.ToLower(mustEnv("USAGE_SINK", "none")),
		PostgresDSN: mustEnv("POSTGRES_DSN", ""),
		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "game_expert.usage"),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// LLMTimeout bounds one backend call.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// BackendHTTPTimeout sits above LLMTimeout so the call deadline fires first.
func (c Config) BackendHTTPTimeout() time.Duration {
	return c.LLMTimeout() + 10*time.Second
}

// APIWriteTimeout leaves room to write the answer after the slowest call.
func (c Config) APIWriteTimeout() time.Duration {
	return c.LLMTimeout() + 30*time.Second
}

// Validate reports the first configuration problem in a readable form.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key, fallback string) []string {
	raw := mustEnv(key, fallback)
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
