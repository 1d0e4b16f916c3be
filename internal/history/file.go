package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileStore keeps history as a JSON array on disk, bounded to maxEntries.
// Writes rewrite the file atomically via a temp file rename.
type FileStore struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	entries    []Entry
}

// NewFileStore loads (or creates) the history file at path. A corrupt file is
// moved aside and a fresh history is started rather than failing the command.
func NewFileStore(path string, maxEntries int) (*FileStore, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	s := &FileStore{path: path, maxEntries: maxEntries}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fresh store
	case err != nil:
		return nil, fmt.Errorf("read history: %w", err)
	default:
		if jsonErr := json.Unmarshal(data, &s.entries); jsonErr != nil {
			backup := path + ".corrupt." + time.Now().Format("20060102150405")
			if renameErr := os.Rename(path, backup); renameErr != nil {
				return nil, fmt.Errorf("history file corrupt and could not be moved aside: %w", renameErr)
			}
			s.entries = nil
		}
	}
	return s, nil
}

// Append records an entry and persists the bounded list.
func (s *FileStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}
	return s.save()
}

// Recent returns up to n entries, newest first.
func (s *FileStore) Recent(_ context.Context, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= len(s.entries)-n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Search returns entries whose prompt or command contains pattern,
// case-insensitively, newest first.
func (s *FileStore) Search(_ context.Context, pattern string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(pattern)
	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if strings.Contains(strings.ToLower(e.Prompt), needle) ||
			strings.Contains(strings.ToLower(e.Command), needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Stats aggregates the stored entries.
func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeStats(s.entries), nil
}

// Clear drops all entries and persists the empty list.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return s.save()
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

// save writes the entries atomically. Caller holds s.mu.
func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
