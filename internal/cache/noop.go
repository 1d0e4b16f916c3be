package cache

import (
	"context"
	"time"
)

// NoOpCache is a cache implementation that does nothing. Used when no Redis
// address is configured - every lookup is a miss and writes are dropped.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetResponse always returns nil (cache miss)
func (c *NoOpCache) GetResponse(ctx context.Context, key string) (*Response, error) {
	return nil, nil
}

// SetResponse does nothing and always succeeds
func (c *NoOpCache) SetResponse(ctx context.Context, key string, resp *Response, ttl time.Duration) error {
	return nil
}

// Invalidate does nothing and always succeeds
func (c *NoOpCache) Invalidate(ctx context.Context) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
