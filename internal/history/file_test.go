package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, max int) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	s, err := NewFileStore(path, max)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s, path
}

func TestFileStoreAppendAndRecent(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()

	for _, prompt := range []string{"first", "second", "third"} {
		if err := s.Append(ctx, Entry{Command: "chat", Prompt: prompt, Success: true}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Prompt != "third" || recent[1].Prompt != "second" {
		t.Errorf("expected newest first, got %q, %q", recent[0].Prompt, recent[1].Prompt)
	}
	if recent[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected ID to be assigned on append")
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t, 100)
	ctx := context.Background()
	if err := s.Append(ctx, Entry{Command: "generate", Prompt: "write a parser"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	reopened, err := NewFileStore(path, 100)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	recent, _ := reopened.Recent(ctx, 10)
	if len(recent) != 1 || recent[0].Prompt != "write a parser" {
		t.Errorf("expected persisted entry, got %+v", recent)
	}
}

func TestFileStoreBounded(t *testing.T) {
	s, _ := newTestStore(t, 3)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		s.Append(ctx, Entry{Command: "chat", Prompt: string(rune('a' + i))})
	}
	recent, _ := s.Recent(ctx, 100)
	if len(recent) != 3 {
		t.Errorf("expected store bounded to 3 entries, got %d", len(recent))
	}
	if recent[0].Prompt != "j" {
		t.Errorf("expected newest entry kept, got %q", recent[0].Prompt)
	}
}

func TestFileStoreSearch(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()
	s.Append(ctx, Entry{Command: "debug", Prompt: "Fix the login bug"})
	s.Append(ctx, Entry{Command: "chat", Prompt: "what is a goroutine"})

	hits, err := s.Search(ctx, "LOGIN")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Command != "debug" {
		t.Errorf("expected one case-insensitive hit, got %+v", hits)
	}

	hits, _ = s.Search(ctx, "debug")
	if len(hits) != 1 {
		t.Errorf("expected command name to match, got %d hits", len(hits))
	}
}

func TestFileStoreStats(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()
	s.Append(ctx, Entry{Command: "chat", Provider: "openai", TokensUsed: 10, Success: true})
	s.Append(ctx, Entry{Command: "chat", Provider: "ollama", TokensUsed: 5, Success: false})
	s.Append(ctx, Entry{Command: "generate", Provider: "openai", TokensUsed: 20, Success: true})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.TotalTokens != 35 {
		t.Errorf("expected 35 tokens, got %d", stats.TotalTokens)
	}
	if stats.ByCommand["chat"] != 2 || stats.ByProvider["openai"] != 2 {
		t.Errorf("unexpected grouping: %+v", stats)
	}
}

func TestFileStoreClear(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()
	s.Append(ctx, Entry{Command: "chat", Prompt: "x"})
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	recent, _ := s.Recent(ctx, 10)
	if len(recent) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(recent))
	}
}

func TestFileStoreCorruptFileMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(path, 100)
	if err != nil {
		t.Fatalf("corrupt file should not fail open: %v", err)
	}
	recent, _ := s.Recent(context.Background(), 10)
	if len(recent) != 0 {
		t.Errorf("expected fresh history, got %d entries", len(recent))
	}

	matches, _ := filepath.Glob(path + ".corrupt.*")
	if len(matches) != 1 {
		t.Errorf("expected corrupt file moved aside, found %v", matches)
	}
}
