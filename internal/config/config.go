// Package config reads process configuration from the environment and an
// optional .env file. The result is immutable and injected into components.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	DatabaseURL string
	EnableDB    bool

	Model     ModelConfig
	Gate      GateConfig
	Log       LogConfig
	Telemetry TelemetryConfig

	// BundlesFile points at a YAML keyword bundle table; empty uses the
	// built-in bundles.
	BundlesFile string
}

type ModelConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
}

type GateConfig struct {
	GitHubToken  string
	GitHubAPIURL string
	Owner        string
	Repo         string
	Bypass       []string
	CheckUser    bool
}

type LogConfig struct {
	Level  string
	Format string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		EnableDB:    envBool("ENABLE_DB", false, &errs),
		BundlesFile: os.Getenv("TRIAGE_BUNDLES_FILE"),
		Model: ModelConfig{
			Provider:      strings.ToLower(getEnv("MODEL_PROVIDER", "gemini")),
			GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
			Timeout:       envDuration("MODEL_TIMEOUT", 30*time.Second, &errs),
		},
		Gate: GateConfig{
			GitHubToken:  os.Getenv("GITHUB_TOKEN"),
			GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
			Owner:        getEnv("GATE_OWNER", "sanatanisher01"),
			Repo:         getEnv("GATE_REPO", "Healthcare-symptoms"),
			Bypass:       splitList(getEnv("GATE_BYPASS", "test,demo")),
			CheckUser:    envBool("GATE_CHECK_USER", true, &errs),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "console")),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false, &errs),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "medicheck"),
		},
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when ENABLE_DB=true"))
	}
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE must be debug, release or test, got %q", cfg.GinMode))
	}
	switch cfg.Model.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("MODEL_PROVIDER must be gemini or openai, got %q", cfg.Model.Provider))
	}
	if cfg.Model.Timeout <= 0 {
		errs = append(errs, errors.New("MODEL_TIMEOUT must be positive"))
	}
	if strings.TrimSpace(cfg.Gate.Repo) == "" || strings.TrimSpace(cfg.Gate.Owner) == "" {
		errs = append(errs, errors.New("GATE_OWNER and GATE_REPO are required"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envBool(key string, fallback bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
