package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrMissingBaseURL = errors.New("api base url is required")
	ErrMissingModel   = errors.New("model is required")
	ErrMissingAPIKey  = errors.New("api key is required")
)

// Options describes how one provider resolves its configuration from the
// environment. EnvPrefix selects the variable family ("OLLAMA", "OPENROUTER").
type Options struct {
	Name           string
	EnvPrefix      string
	DefaultBaseURL string
	DefaultModel   string
	DefaultTimeout time.Duration
	RequireAPIKey  bool
}

// Provider holds resolved, validated connection parameters for one backend.
// Constructed once at startup and read-only afterwards.
type Provider struct {
	Name      string
	EnvPrefix string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	APIKey    string
}

// Load resolves a provider configuration with precedence:
// {PREFIX}_API_BASE > {PREFIX}_BASE_URL > built-in default. A missing base
// URL or model is a startup failure; a bad timeout only falls back.
func Load(opts Options, logger *zap.Logger) (*Provider, error) {
	cfg := &Provider{
		Name:      opts.Name,
		EnvPrefix: opts.EnvPrefix,
		BaseURL:   loadBaseURL(opts),
		Model:     getEnvOrDefault(opts.EnvPrefix+"_MCP_MODEL", opts.DefaultModel),
		Timeout:   loadTimeout(opts, logger),
	}
	if opts.RequireAPIKey {
		cfg.APIKey = os.Getenv(opts.EnvPrefix + "_API_KEY")
	}

	if err := cfg.validate(opts, logger); err != nil {
		return nil, err
	}

	logger.Info("provider configured",
		zap.String("provider", cfg.Name),
		zap.String("api_base", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return cfg, nil
}

// LoadOllama resolves configuration for a local Ollama server.
func LoadOllama(logger *zap.Logger) (*Provider, error) {
	return Load(Options{
		Name:           "Ollama",
		EnvPrefix:      "OLLAMA",
		DefaultBaseURL: "http://localhost:11434",
		DefaultModel:   "llama3.2",
		DefaultTimeout: 300 * time.Second,
	}, logger)
}

// LoadOpenRouter resolves configuration for the OpenRouter aggregator.
// Unlike Ollama, an API key is mandatory.
func LoadOpenRouter(logger *zap.Logger) (*Provider, error) {
	return Load(Options{
		Name:           "OpenRouter",
		EnvPrefix:      "OPENROUTER",
		DefaultBaseURL: "https://openrouter.ai/api/v1",
		DefaultModel:   "openai/gpt-3.5-turbo",
		DefaultTimeout: 60 * time.Second,
		RequireAPIKey:  true,
	}, logger)
}

// MetricsAddr returns the optional listen address for the Prometheus
// endpoint. Empty means the endpoint stays disabled.
func MetricsAddr() string {
	return os.Getenv("METRICS_ADDR")
}

func loadBaseURL(opts Options) string {
	// Two accepted spellings, e.g. OLLAMA_API_BASE and OLLAMA_BASE_URL.
	base := firstEnv(opts.EnvPrefix+"_API_BASE", opts.EnvPrefix+"_BASE_URL")
	if base == "" {
		base = opts.DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

func loadTimeout(opts Options, logger *zap.Logger) time.Duration {
	key := opts.EnvPrefix + "_TIMEOUT"
	raw := os.Getenv(key)
	if raw == "" {
		return opts.DefaultTimeout
	}

	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		logger.Warn("invalid timeout value, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Duration("default", opts.DefaultTimeout),
		)
		return opts.DefaultTimeout
	}
	return time.Duration(seconds * float64(time.Second))
}

func (c *Provider) validate(opts Options, logger *zap.Logger) error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		logger.Warn("api base url should start with http:// or https://",
			zap.String("key", opts.EnvPrefix+"_API_BASE"),
			zap.String("value", c.BaseURL),
		)
	}
	if opts.RequireAPIKey && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
