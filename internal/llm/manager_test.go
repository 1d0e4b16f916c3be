package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerFallsBackOnRateLimit(t *testing.T) {
	primary := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	secondary := &MockProvider{ProviderName: "ollama", ProviderTier: TierLocal}

	primary.On("Generate", mock.Anything, mock.Anything).
		Return(Response{}, NewRateLimitError("openai", "quota exhausted", 25, time.Now().Add(time.Hour), "")).Once()
	secondary.On("Generate", mock.Anything, mock.Anything).
		Return(Response{Text: "hello", Provider: "ollama"}, nil).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, primary, secondary)
	markAvailable(m)

	resp, err := m.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, "ollama", resp.Provider)
	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestManagerNoFallbackWhenDisabled(t *testing.T) {
	primary := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	secondary := &MockProvider{ProviderName: "ollama", ProviderTier: TierLocal}

	primary.On("Generate", mock.Anything, mock.Anything).
		Return(Response{}, Errorf("openai", "boom")).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: false}, primary, secondary)
	markAvailable(m)

	_, err := m.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
	require.Error(t, err)
	secondary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestManagerTierOrder(t *testing.T) {
	local := &MockProvider{ProviderName: "ollama", ProviderTier: TierLocal}
	byok := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	anon := &MockProvider{ProviderName: "proxy", ProviderTier: TierAnon}

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, local, byok, anon)
	markAvailable(m)

	statuses := m.Statuses()
	require.Equal(t, "openai", statuses[0].Provider.Name())
	require.Equal(t, "proxy", statuses[1].Provider.Name())
	require.Equal(t, "ollama", statuses[2].Provider.Name())
}

func TestManagerPreferLocalPromotesOllama(t *testing.T) {
	local := &MockProvider{ProviderName: "ollama", ProviderTier: TierLocal}
	byok := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	anon := &MockProvider{ProviderName: "proxy", ProviderTier: TierAnon}

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true, PreferLocal: true}, local, byok, anon)
	markAvailable(m)

	statuses := m.Statuses()
	require.Equal(t, "openai", statuses[0].Provider.Name())
	require.Equal(t, "ollama", statuses[1].Provider.Name())
	require.Equal(t, "proxy", statuses[2].Provider.Name())
}

func TestManagerExplicitPreferenceWins(t *testing.T) {
	local := &MockProvider{ProviderName: "ollama", ProviderTier: TierLocal}
	byok := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}

	local.On("Generate", mock.Anything, mock.Anything).
		Return(Response{Text: "local answer", Provider: "ollama"}, nil).Once()

	m := NewManager(testLog(), ManagerConfig{Preferred: "ollama", EnableFallback: true}, local, byok)
	markAvailable(m)

	resp, err := m.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, "ollama", resp.Provider)
	byok.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestManagerSkipsProvidersWithoutToolSupport(t *testing.T) {
	noTools := &MockProvider{ProviderName: "ollama", ProviderTier: TierBYOK, Tools: false}
	withTools := &MockProvider{ProviderName: "openai", ProviderTier: TierLocal, Tools: true}

	withTools.On("Generate", mock.Anything, mock.Anything).
		Return(Response{Text: "done", Provider: "openai"}, nil).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, noTools, withTools)
	markAvailable(m)

	resp, err := m.Generate(context.Background(), GenerateOptions{
		Prompt: "read a file",
		Tools:  []ToolDef{{Name: "read_file"}},
	})
	require.NoError(t, err)
	require.Equal(t, "openai", resp.Provider)
	noTools.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestManagerAllRateLimitedReturnsHintedError(t *testing.T) {
	anon := &MockProvider{ProviderName: "proxy", ProviderTier: TierAnon}
	reset := time.Now().Add(2 * time.Hour)
	anon.On("Generate", mock.Anything, mock.Anything).
		Return(Response{}, NewRateLimitError("proxy", "limit", 5, reset, "https://rocket-cli.dev/upgrade")).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, anon)
	markAvailable(m)

	_, err := m.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
	require.Error(t, err)
	require.True(t, IsRateLimit(err))
	require.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestManagerStreamFallsBackToGenerate(t *testing.T) {
	p := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	p.On("Stream", mock.Anything, mock.Anything, mock.Anything).
		Return(Errorf("openai", "stream unsupported")).Once()
	p.On("Generate", mock.Anything, mock.Anything).
		Return(Response{Text: "full answer", Provider: "openai"}, nil).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, p)
	markAvailable(m)

	var got string
	err := m.Stream(context.Background(), GenerateOptions{Prompt: "hi"}, func(chunk string) error {
		got += chunk
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "full answer", got)
}

func TestManagerStreamNoFallbackAfterFirstChunk(t *testing.T) {
	primary := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	secondary := &MockProvider{ProviderName: "ollama", ProviderTier: TierLocal}

	primary.On("Stream", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(StreamFunc)
			_ = fn("partial answer ")
		}).
		Return(Errorf("openai", "connection reset")).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, primary, secondary)
	markAvailable(m)

	var got string
	err := m.Stream(context.Background(), GenerateOptions{Prompt: "hi"}, func(chunk string) error {
		got += chunk
		return nil
	})
	require.Error(t, err)
	require.Equal(t, "partial answer ", got, "partial output must not be re-emitted")
	secondary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	primary.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestManagerStreamCallbackErrorNotAProviderFailure(t *testing.T) {
	p := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	abort := errors.New("consumer closed")
	p.On("Stream", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(StreamFunc)
			_ = fn("chunk")
		}).
		Return(abort).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, p)
	markAvailable(m)

	err := m.Stream(context.Background(), GenerateOptions{Prompt: "hi"}, func(string) error {
		return abort
	})
	require.ErrorIs(t, err, abort)
	p.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	statuses := m.Statuses()
	require.Equal(t, 0, statuses[0].ConsecutiveFailures, "aborting the stream must not mark the provider failed")
	require.NotNil(t, m.Active())
}

func TestRateLimitOpensAfterReset(t *testing.T) {
	exhausted := RateLimit{Limit: 25, Remaining: 0, ResetAt: time.Now().Add(time.Hour)}
	require.True(t, exhausted.Limited())

	expired := RateLimit{Limit: 25, Remaining: 0, ResetAt: time.Now().Add(-time.Minute)}
	require.False(t, expired.Limited())

	unknownReset := RateLimit{Limit: 25, Remaining: 0}
	require.True(t, unknownReset.Limited())

	open := RateLimit{Limit: 25, Remaining: 10}
	require.False(t, open.Limited())
}

func TestManagerRecoversWhenRateLimitResets(t *testing.T) {
	p := &MockProvider{ProviderName: "proxy", ProviderTier: TierAnon}
	p.On("Generate", mock.Anything, mock.Anything).
		Return(Response{}, NewRateLimitError("proxy", "limit", 5, time.Now().Add(time.Hour), "")).Once()

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, p)
	markAvailable(m)

	_, err := m.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
	require.Error(t, err)
	require.Nil(t, m.Active(), "exhausted provider should be sidelined")

	m.mu.Lock()
	m.statuses["proxy"].RateLimit.ResetAt = time.Now().Add(-time.Second)
	m.mu.Unlock()

	require.NotNil(t, m.Active(), "provider should serve again once the window resets")
}

func TestManagerUnhealthyAfterConsecutiveFailures(t *testing.T) {
	p := &MockProvider{ProviderName: "openai", ProviderTier: TierBYOK}
	p.On("Generate", mock.Anything, mock.Anything).
		Return(Response{}, Errorf("openai", "boom")).Times(maxConsecutiveFailures)

	m := NewManager(testLog(), ManagerConfig{EnableFallback: true}, p)
	markAvailable(m)

	for i := 0; i < maxConsecutiveFailures; i++ {
		_, err := m.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
		require.Error(t, err)
	}
	require.Nil(t, m.Active(), "provider should be sidelined after repeated failures")
}

// markAvailable flags every provider healthy without probing the network.
func markAvailable(m *Manager) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.statuses {
		s.Available = true
		s.LastChecked = time.Now()
	}
}
