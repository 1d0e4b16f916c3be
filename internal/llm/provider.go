package llm

import "context"

// StreamFunc receives each text chunk as it arrives.
type StreamFunc func(chunk string) error

// Provider is the contract every backend implements. Generate is required;
// Stream may be implemented by buffering when the backend cannot stream.
type Provider interface {
	// Name identifies the provider ("openai", "proxy", "ollama").
	Name() string

	// Tier places the provider in the fallback priority order.
	Tier() Tier

	// Generate produces a completion for the given options.
	Generate(ctx context.Context, opts GenerateOptions) (Response, error)

	// Stream produces a completion incrementally, invoking fn per chunk.
	Stream(ctx context.Context, opts GenerateOptions, fn StreamFunc) error

	// Available reports whether the provider can serve requests right now.
	Available(ctx context.Context) bool

	// Models lists model identifiers the provider can serve.
	Models(ctx context.Context) ([]string, error)

	// RateLimits returns the current quota window.
	RateLimits(ctx context.Context) (RateLimit, error)

	// SupportsTools reports whether Generate honors GenerateOptions.Tools.
	SupportsTools() bool
}
