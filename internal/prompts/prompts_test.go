package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPerCommand(t *testing.T) {
	assert.Equal(t, ChatSystem, System("chat", "go"))
	assert.Contains(t, System("generate", "go"), "expert go developer")
	assert.Contains(t, System("explain", "python"), "expert python code analyst")
	assert.Contains(t, System("debug", "rust"), "expert rust debugger")
	assert.Contains(t, System("optimize", "go"), "code optimizer")
	assert.Contains(t, System("review", "go"), "code reviewer")

	// Unknown commands get the generic persona.
	assert.Equal(t, "You are an expert go developer.", System("frobnicate", "go"))
}

func TestDebugPrompt(t *testing.T) {
	p := Debug("x := y", "undefined: y", "go")
	assert.Contains(t, p, "Error:\nundefined: y")
	assert.Contains(t, p, "```go\nx := y\n```")

	// Code-only and error-only variants omit the empty section.
	assert.NotContains(t, Debug("x := y", "", "go"), "Error:")
	assert.NotContains(t, Debug("", "boom", "go"), "```")
}

func TestReviewPromptOrdered(t *testing.T) {
	p := Review(map[string]string{
		"b.go": "package b",
		"a.go": "package a",
	}, "go")
	assert.Less(t, strings.Index(p, "a.go"), strings.Index(p, "b.go"))
	assert.Contains(t, p, "--- a.go ---")
}

func TestOptimizePrompt(t *testing.T) {
	p := Optimize("for {}", "go", "performance")
	assert.Contains(t, p, "Optimize this go code for performance")
	assert.Contains(t, p, "```go\nfor {}\n```")
}
