package events

import "context"

// NoOpPublisher drops all events. Used when no events URL is configured.
type NoOpPublisher struct{}

// NewNoOpPublisher creates a new no-op publisher instance
func NewNoOpPublisher() *NoOpPublisher {
	return &NoOpPublisher{}
}

// Publish does nothing and always succeeds
func (p *NoOpPublisher) Publish(ctx context.Context, e Event) error {
	return nil
}

// Close does nothing and always succeeds
func (p *NoOpPublisher) Close() error {
	return nil
}
