package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration for the rocket CLI. Values come from the
// environment, optionally seeded from ~/.rocket/config and a local .env file.
type Config struct {
	LogLevel string `env:"ROCKET_LOG_LEVEL" envDefault:"warn" validate:"oneof=debug info warn error"`

	// Provider selection
	PreferredProvider string `env:"ROCKET_PROVIDER" validate:"omitempty,oneof=openai proxy ollama"`
	EnableFallback    bool   `env:"ROCKET_FALLBACK" envDefault:"true"`
	PreferLocal       bool   `env:"ROCKET_PREFER_LOCAL" envDefault:"false"`

	// OpenAI-compatible backend (api.openai.com or any /v1 server)
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" validate:"omitempty,url"`
	Model         string `env:"ROCKET_MODEL" envDefault:"gpt-4o-mini"`

	// Community proxy
	ProxyURL    string `env:"ROCKET_PROXY_URL" envDefault:"https://api.rocket-cli.dev" validate:"omitempty,url"`
	GitHubToken string `env:"ROCKET_GITHUB_TOKEN"`

	// Local Ollama
	OllamaURL   string `env:"ROCKET_OLLAMA_URL" envDefault:"http://localhost:11434" validate:"omitempty,url"`
	OllamaModel string `env:"ROCKET_OLLAMA_MODEL" envDefault:"llama3.2"`

	// Generation defaults
	Temperature float64 `env:"ROCKET_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=2"`
	MaxTokens   int     `env:"ROCKET_MAX_TOKENS" envDefault:"2048" validate:"gt=0"`
	MaxRetries  int     `env:"ROCKET_MAX_RETRIES" envDefault:"3" validate:"gte=1,lte=10"`
	RetryBaseMS int     `env:"ROCKET_RETRY_BASE_MS" envDefault:"1000" validate:"gt=0"`

	// Response cache (optional; noop when addr empty)
	CacheAddr     string `env:"ROCKET_CACHE_ADDR"`
	CachePassword string `env:"ROCKET_CACHE_PASSWORD"`
	CacheTTL      int    `env:"ROCKET_CACHE_TTL" envDefault:"3600" validate:"gt=0"`

	// History (file by default, postgres when DSN set)
	HistoryPath string `env:"ROCKET_HISTORY_PATH"`
	HistoryDSN  string `env:"ROCKET_HISTORY_DSN"`
	HistoryMax  int    `env:"ROCKET_HISTORY_MAX" envDefault:"1000" validate:"gt=0"`

	// Event publishing (optional; noop when URL empty)
	EventsURL string `env:"ROCKET_EVENTS_URL"`

	// Local HTTP API (rocket serve)
	Port int `env:"ROCKET_PORT" envDefault:"7420" validate:"gt=0,lte=65535"`

	// Workspace root for tools; defaults to the current directory.
	Workspace string `env:"ROCKET_WORKSPACE"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve workspace: %w", err)
		}
		cfg.Workspace = wd
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = filepath.Join(DataDir(), "history.json")
	}
	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DataDir returns the rocket data directory, ~/.rocket by default.
// ROCKET_DATA_DIR overrides it.
func DataDir() string {
	if dir := os.Getenv("ROCKET_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rocket"
	}
	return filepath.Join(home, ".rocket")
}

// File returns the path of the persistent config file written by
// `rocket config set`.
func File() string {
	return filepath.Join(DataDir(), "config")
}

// HasRemote reports whether any remote backend is configured.
func (c Config) HasRemote() bool {
	return c.OpenAIKey != "" || c.ProxyURL != ""
}
