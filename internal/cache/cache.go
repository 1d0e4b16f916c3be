package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores rendered LLM responses so repeated prompts skip the backend.
type Cache interface {
	// GetResponse retrieves a cached response by key. Returns nil on miss.
	GetResponse(ctx context.Context, key string) (*Response, error)

	// SetResponse stores a response with TTL.
	SetResponse(ctx context.Context, key string, resp *Response, ttl time.Duration) error

	// Invalidate removes every cached response.
	Invalidate(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// Response is the cached payload.
type Response struct {
	Text     string `json:"text"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Tokens   int    `json:"tokens"`
}

// Key derives a deterministic cache key from the request shape. Chat is never
// cached, so command+model+system+prompt identifies a response.
func Key(command, model, system, prompt string) string {
	h := sha256.Sum256([]byte(strings.Join([]string{command, model, system, prompt}, "\x00")))
	return hex.EncodeToString(h[:])
}
