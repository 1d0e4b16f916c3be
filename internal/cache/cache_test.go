package cache

import (
	"context"
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("generate", "gpt-4o-mini", "system", "write a parser")
	b := Key("generate", "gpt-4o-mini", "system", "write a parser")
	if a != b {
		t.Error("same inputs should produce the same key")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestKeySeparatesFields(t *testing.T) {
	// "ab"+"c" must not collide with "a"+"bc".
	a := Key("generate", "m", "ab", "c")
	b := Key("generate", "m", "a", "bc")
	if a == b {
		t.Error("field boundaries should affect the key")
	}

	if Key("generate", "m", "s", "p") == Key("explain", "m", "s", "p") {
		t.Error("command should affect the key")
	}
	if Key("generate", "m1", "s", "p") == Key("generate", "m2", "s", "p") {
		t.Error("model should affect the key")
	}
}

// TestNoOpCache verifies that NoOpCache implements the Cache interface correctly
func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	resp, err := c.GetResponse(ctx, "key")
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if resp != nil {
		t.Errorf("expected nil result (cache miss), got %v", resp)
	}

	if err := c.SetResponse(ctx, "key", &Response{Text: "answer", Model: "m"}, time.Hour); err != nil {
		t.Errorf("expected no error on SetResponse, got %v", err)
	}

	// Still a miss: nothing was actually stored.
	resp, err = c.GetResponse(ctx, "key")
	if err != nil || resp != nil {
		t.Errorf("expected miss after set, got %v, %v", resp, err)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Errorf("expected no error on Invalidate, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("expected no error on Close, got %v", err)
	}
}
