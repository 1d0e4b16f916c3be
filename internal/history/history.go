package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded invocation.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Time       time.Time `json:"time"`
	Command    string    `json:"command"`
	Prompt     string    `json:"prompt"`
	Mode       string    `json:"mode,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Model      string    `json:"model,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	TokensUsed int       `json:"tokens_used"`
	DurationMS int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
}

// Stats summarizes recorded usage.
type Stats struct {
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	TotalTokens int            `json:"total_tokens"`
	ByCommand   map[string]int `json:"by_command"`
	ByProvider  map[string]int `json:"by_provider"`
}

// Store persists prompt history. File-backed by default; Postgres when a DSN
// is configured so a team can share one history.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
	Search(ctx context.Context, pattern string) ([]Entry, error)
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

func computeStats(entries []Entry) Stats {
	s := Stats{
		ByCommand:  make(map[string]int),
		ByProvider: make(map[string]int),
	}
	for _, e := range entries {
		s.Total++
		if e.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.TotalTokens += e.TokensUsed
		s.ByCommand[e.Command]++
		if e.Provider != "" {
			s.ByProvider[e.Provider]++
		}
	}
	return s
}
