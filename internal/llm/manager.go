package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxConsecutiveFailures = 3

// Status tracks the health of one provider inside the manager.
type Status struct {
	Provider            Provider
	Available           bool
	RateLimit           *RateLimit
	LastError           string
	LastChecked         time.Time
	ConsecutiveFailures int
}

// Healthy reports whether the provider should receive requests.
func (s *Status) Healthy() bool {
	if !s.Available || s.ConsecutiveFailures >= maxConsecutiveFailures {
		return false
	}
	return s.RateLimit == nil || !s.RateLimit.Limited()
}

// ManagerConfig controls provider ordering and fallback behavior.
type ManagerConfig struct {
	Preferred      string // explicit provider name, empty for tier order
	EnableFallback bool
	PreferLocal    bool // try the local runner before the community proxy
}

// Manager routes requests to the best available provider and falls back when
// one is rate limited or unavailable.
type Manager struct {
	cfg ManagerConfig
	log *slog.Logger

	mu       sync.Mutex
	statuses map[string]*Status
	order    []string
}

// NewManager wires the given providers without probing them; call Init (or
// let the first Generate do it lazily) to check availability.
func NewManager(log *slog.Logger, cfg ManagerConfig, providers ...Provider) *Manager {
	m := &Manager{
		cfg:      cfg,
		log:      log,
		statuses: make(map[string]*Status, len(providers)),
	}
	for _, p := range providers {
		m.statuses[p.Name()] = &Status{Provider: p}
	}
	m.rebuildOrder()
	return m
}

// Init probes all providers concurrently and records availability.
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()
	statuses := make([]*Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		statuses = append(statuses, s)
	}
	m.mu.Unlock()

	g, probeCtx := errgroup.WithContext(ctx)
	for _, s := range statuses {
		g.Go(func() error {
			available := s.Provider.Available(probeCtx)
			var limit *RateLimit
			if available {
				if rl, err := s.Provider.RateLimits(probeCtx); err == nil {
					limit = &rl
				}
			}
			m.mu.Lock()
			s.Available = available
			s.RateLimit = limit
			s.LastChecked = time.Now()
			m.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	m.mu.Lock()
	m.rebuildOrder()
	var available []string
	for name, s := range m.statuses {
		if s.Available {
			available = append(available, name)
		}
	}
	m.mu.Unlock()
	m.log.Info("providers probed", "available", available)
}

// rebuildOrder sorts providers by tier, honoring explicit preference and
// prefer-local. Caller holds m.mu or has exclusive access.
func (m *Manager) rebuildOrder() {
	names := make([]string, 0, len(m.statuses))
	for name := range m.statuses {
		names = append(names, name)
	}
	rank := func(name string) int {
		s := m.statuses[name]
		t := s.Provider.Tier()
		if m.cfg.PreferLocal && t == TierLocal {
			return int(TierBYOK) + 1 // just behind the user's own key
		}
		return int(t) * 2
	}
	sort.Slice(names, func(i, j int) bool { return rank(names[i]) < rank(names[j]) })

	if m.cfg.Preferred != "" {
		if _, ok := m.statuses[m.cfg.Preferred]; ok {
			reordered := []string{m.cfg.Preferred}
			for _, n := range names {
				if n != m.cfg.Preferred {
					reordered = append(reordered, n)
				}
			}
			names = reordered
		}
	}
	m.order = names
}

func (m *Manager) next(tried map[string]bool, needTools bool) *Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.order {
		if tried[name] {
			continue
		}
		s := m.statuses[name]
		if needTools && !s.Provider.SupportsTools() {
			continue
		}
		if s.Healthy() {
			return s
		}
	}
	return nil
}

// Generate runs the request against the best healthy provider, falling back
// through the priority order on provider errors.
func (m *Manager) Generate(ctx context.Context, opts GenerateOptions) (Response, error) {
	tried := make(map[string]bool)
	needTools := len(opts.Tools) > 0

	var lastErr error
	var rateLimited []*RateLimitError

	for {
		status := m.next(tried, needTools)
		if status == nil {
			break
		}
		p := status.Provider
		tried[p.Name()] = true

		m.log.Debug("trying provider", "provider", p.Name())
		resp, err := p.Generate(ctx, opts)
		if err == nil {
			m.recordSuccess(status, resp.RateLimit)
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}

		lastErr = err
		m.recordFailure(status, err, &rateLimited)
		if !m.cfg.EnableFallback {
			return Response{}, err
		}
		m.log.Warn("provider failed, falling back", "provider", p.Name(), "err", err)
	}

	if len(rateLimited) > 0 {
		first := rateLimited[0]
		return Response{}, NewRateLimitError("all", m.rateLimitMessage(rateLimited), first.Limit, first.ResetAt, first.UpgradeURL)
	}
	if lastErr != nil {
		return Response{}, fmt.Errorf("all providers failed: %w", lastErr)
	}
	if needTools {
		return Response{}, errors.New("no provider with tool support available; configure OPENAI_API_KEY")
	}
	return Response{}, errors.New("no providers available; set OPENAI_API_KEY or start ollama")
}

// Stream streams from the first healthy provider. There is no mid-stream
// fallback: once a chunk has reached the caller the error is returned as-is,
// since re-generating would repeat text already shown. Only when the stream
// fails before the first chunk is Generate used as a fallback and the answer
// delivered in one piece.
func (m *Manager) Stream(ctx context.Context, opts GenerateOptions, fn StreamFunc) error {
	status := m.next(map[string]bool{}, false)
	if status == nil {
		return errors.New("no providers available; set OPENAI_API_KEY or start ollama")
	}
	p := status.Provider
	m.log.Debug("streaming with provider", "provider", p.Name())

	started := false
	var callbackErr error
	err := p.Stream(ctx, opts, func(chunk string) error {
		started = true
		if err := fn(chunk); err != nil {
			callbackErr = err
			return err
		}
		return nil
	})
	if err == nil {
		m.recordSuccess(status, nil)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if callbackErr != nil {
		// The consumer aborted; the provider is fine.
		return callbackErr
	}

	var rateLimited []*RateLimitError
	m.recordFailure(status, err, &rateLimited)
	if started || !m.cfg.EnableFallback || IsRateLimit(err) {
		return err
	}
	m.log.Warn("stream failed to start, falling back to non-streaming", "provider", p.Name(), "err", err)
	resp, genErr := m.Generate(ctx, opts)
	if genErr != nil {
		return genErr
	}
	return fn(resp.Text)
}

// Active returns the provider the next request would use, or nil.
func (m *Manager) Active() Provider {
	if s := m.next(map[string]bool{}, false); s != nil {
		return s.Provider
	}
	return nil
}

// Statuses returns a snapshot of provider health in priority order.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.statuses[name])
	}
	return out
}

// Refresh re-probes every provider.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	for _, s := range m.statuses {
		s.ConsecutiveFailures = 0
	}
	m.mu.Unlock()
	m.Init(ctx)
}

func (m *Manager) recordSuccess(s *Status, limit *RateLimit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Available = true
	s.ConsecutiveFailures = 0
	if limit != nil {
		s.RateLimit = limit
	}
}

func (m *Manager) recordFailure(s *Status, err error, rateLimited *[]*RateLimitError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ConsecutiveFailures++
	s.LastError = err.Error()

	var rl *RateLimitError
	if errors.As(err, &rl) {
		s.RateLimit = &RateLimit{
			Limit:   rl.Limit,
			ResetAt: rl.ResetAt,
			Tier:    s.Provider.Tier(),
		}
		*rateLimited = append(*rateLimited, rl)
		return
	}
	if IsUnavailable(err) {
		s.Available = false
	}
}

func (m *Manager) rateLimitMessage(errs []*RateLimitError) string {
	lines := []string{"rate limit reached on all providers"}

	hasBYOK := false
	hasAuth := false
	m.mu.Lock()
	for _, s := range m.statuses {
		switch s.Provider.Tier() {
		case TierBYOK:
			hasBYOK = true
		case TierAuth:
			hasAuth = true
		}
	}
	m.mu.Unlock()

	if !hasBYOK {
		lines = append(lines, "tip: use your own API key for unmetered requests: rocket config set OPENAI_API_KEY <key>")
	}
	if !hasAuth {
		lines = append(lines, "or set a GitHub token for a higher proxy quota: rocket config set ROCKET_GITHUB_TOKEN <token>")
	}
	for _, e := range errs {
		if !e.ResetAt.IsZero() {
			lines = append(lines, "limits reset at "+e.ResetAt.UTC().Format("15:04 MST"))
			break
		}
	}
	return strings.Join(lines, "\n")
}
