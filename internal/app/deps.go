package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"rocket-cli/internal/agent"
	"rocket-cli/internal/cache"
	"rocket-cli/internal/config"
	"rocket-cli/internal/events"
	"rocket-cli/internal/git"
	"rocket-cli/internal/history"
	"rocket-cli/internal/llm"
	"rocket-cli/internal/logger"
	"rocket-cli/internal/modes"
	"rocket-cli/internal/tools"
)

// Deps bundles the runtime dependencies shared by the CLI and the local
// HTTP server.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Manager *llm.Manager
	Cache   cache.Cache
	History history.Store
	Events  events.Publisher
	Git     *git.Client
	Tools   *tools.Registry
	Modes   *modes.Registry

	Workflow *agent.Workflow
}

// Build loads env files, configuration and all shared components, and probes
// provider availability.
func Build(ctx context.Context) (Deps, error) {
	// Persistent config written by `rocket config set`, then a local .env.
	// Both are optional; the environment always wins.
	_ = godotenv.Load(config.File())
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return Deps{}, err
	}
	log := logger.New(cfg.LogLevel)

	manager, err := buildManager(cfg, log)
	if err != nil {
		return Deps{}, err
	}
	manager.Init(ctx)

	c := buildCache(cfg, log)
	hist, err := buildHistory(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize history: %w", err)
	}
	pub := buildEvents(cfg, log)

	gitClient := git.NewClient(cfg.Workspace, log)
	toolRegistry := tools.DefaultRegistry(cfg.Workspace)
	modeRegistry := modes.NewRegistry()
	selector := modes.NewSelector(manager, modeRegistry, log)

	workflow := agent.NewWorkflow(
		manager, selector, modeRegistry, toolRegistry,
		gitClient, pub, log, cfg.Workspace,
	)

	return Deps{
		Config:   cfg,
		Log:      log,
		Manager:  manager,
		Cache:    c,
		History:  hist,
		Events:   pub,
		Git:      gitClient,
		Tools:    toolRegistry,
		Modes:    modeRegistry,
		Workflow: workflow,
	}, nil
}

// Close releases held connections. Safe to call on a partially built Deps.
func (d Deps) Close() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Log.Warn("cache close failed", "err", err)
		}
	}
	if d.History != nil {
		if err := d.History.Close(); err != nil {
			d.Log.Warn("history close failed", "err", err)
		}
	}
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			d.Log.Warn("events close failed", "err", err)
		}
	}
}

func buildManager(cfg config.Config, log *slog.Logger) (*llm.Manager, error) {
	var providers []llm.Provider

	if cfg.OpenAIKey != "" || cfg.OpenAIBaseURL != "" {
		p, err := llm.NewOpenAIProvider(
			cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model,
			cfg.MaxRetries, time.Duration(cfg.RetryBaseMS)*time.Millisecond,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI provider: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.ProxyURL != "" {
		providers = append(providers, llm.NewProxyProvider(cfg.ProxyURL, cfg.GitHubToken))
	}
	if cfg.OllamaURL != "" {
		providers = append(providers, llm.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel))
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers configured: set OPENAI_API_KEY, ROCKET_PROXY_URL or ROCKET_OLLAMA_URL")
	}

	return llm.NewManager(log, llm.ManagerConfig{
		Preferred:      cfg.PreferredProvider,
		EnableFallback: cfg.EnableFallback,
		PreferLocal:    cfg.PreferLocal,
	}, providers...), nil
}

func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.CacheAddr == "" {
		return cache.NewNoOpCache()
	}
	c, err := cache.NewRedisCache(cfg.CacheAddr, cfg.CachePassword)
	if err != nil {
		log.Warn("redis unavailable, responses will not be cached", "addr", cfg.CacheAddr, "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using redis response cache", "addr", cfg.CacheAddr)
	return c
}

func buildHistory(cfg config.Config, log *slog.Logger) (history.Store, error) {
	if cfg.HistoryDSN != "" {
		st, err := history.NewPostgres(cfg.HistoryDSN)
		if err != nil {
			return nil, err
		}
		log.Info("using postgres history store")
		return st, nil
	}
	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return nil, err
	}
	return history.NewFileStore(cfg.HistoryPath, cfg.HistoryMax)
}

func buildEvents(cfg config.Config, log *slog.Logger) events.Publisher {
	if cfg.EventsURL == "" {
		return events.NewNoOpPublisher()
	}
	nc, err := nats.Connect(cfg.EventsURL, nats.Timeout(3*time.Second))
	if err != nil {
		log.Warn("nats unavailable, run events will not be published", "url", cfg.EventsURL, "err", err)
		return events.NewNoOpPublisher()
	}
	log.Info("publishing run events to nats", "url", cfg.EventsURL)
	return events.NewNATS(log, nc)
}
