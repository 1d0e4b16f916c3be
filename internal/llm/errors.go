package llm

import (
	"errors"
	"fmt"
	"time"
)

// ProviderError is the base error for anything a provider reports.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Errorf builds a ProviderError with a formatted message.
func Errorf(provider, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// RateLimitError is returned when a provider's quota is exhausted.
type RateLimitError struct {
	ProviderError
	RetryAfter time.Duration
	Limit      int
	ResetAt    time.Time
	UpgradeURL string
}

// NewRateLimitError wraps quota exhaustion with reset information.
func NewRateLimitError(provider, message string, limit int, resetAt time.Time, upgradeURL string) *RateLimitError {
	e := &RateLimitError{
		ProviderError: ProviderError{Provider: provider, Message: message},
		Limit:         limit,
		ResetAt:       resetAt,
		UpgradeURL:    upgradeURL,
	}
	if !resetAt.IsZero() {
		e.RetryAfter = time.Until(resetAt)
	}
	return e
}

// ConfigError signals a missing or invalid provider configuration
// (absent API key, malformed URL).
type ConfigError struct {
	ProviderError
}

// NewConfigError builds a ConfigError for provider with message.
func NewConfigError(provider, message string) *ConfigError {
	return &ConfigError{ProviderError{Provider: provider, Message: message}}
}

// UnavailableError signals the backend cannot currently serve requests
// (network down, service offline, model missing).
type UnavailableError struct {
	ProviderError
}

// NewUnavailableError builds an UnavailableError for provider with message.
func NewUnavailableError(provider, message string) *UnavailableError {
	return &UnavailableError{ProviderError{Provider: provider, Message: message}}
}

// IsRateLimit reports whether err is (or wraps) a rate limit error.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsUnavailable reports whether err is (or wraps) an availability error.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
