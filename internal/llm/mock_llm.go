package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of Provider using testify/mock.
type MockProvider struct {
	mock.Mock

	ProviderName string
	ProviderTier Tier
	Tools        bool
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockProvider) Tier() Tier { return m.ProviderTier }

func (m *MockProvider) SupportsTools() bool { return m.Tools }

func (m *MockProvider) Generate(ctx context.Context, opts GenerateOptions) (Response, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(Response), args.Error(1)
}

func (m *MockProvider) Stream(ctx context.Context, opts GenerateOptions, fn StreamFunc) error {
	args := m.Called(ctx, opts, fn)
	return args.Error(0)
}

func (m *MockProvider) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockProvider) Models(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProvider) RateLimits(ctx context.Context) (RateLimit, error) {
	args := m.Called(ctx)
	return args.Get(0).(RateLimit), args.Error(1)
}
