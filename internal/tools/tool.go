package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"rocket-cli/internal/llm"
)

// Category classifies tools by the kind of side effect they can have.
type Category string

const (
	CategoryRead    Category = "read"
	CategoryWrite   Category = "write"
	CategoryExecute Category = "execute"
	CategoryAnalyze Category = "analyze"
)

// Safe reports whether the category has no side effects.
func (c Category) Safe() bool {
	return c == CategoryRead || c == CategoryAnalyze
}

// NeedsConfirmation reports whether the category should prompt before running.
func (c Category) NeedsConfirmation() bool {
	return c == CategoryWrite || c == CategoryExecute
}

// Result is the standardized outcome of a tool execution. A failed result
// always carries a non-empty error; a successful one never does.
type Result struct {
	OK       bool           `json:"ok"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Ok builds a successful result.
func Ok(data any, metadata map[string]any) Result {
	return Result{OK: true, Data: data, Metadata: metadata}
}

// Fail builds a failed result. An empty message is replaced so the failure
// invariant holds.
func Fail(format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	if strings.TrimSpace(msg) == "" {
		msg = "tool failed"
	}
	return Result{OK: false, Error: msg}
}

// Tool is one callable capability exposed to the model.
type Tool interface {
	Name() string
	Description() string
	Category() Category

	// Schema describes parameters in the JSON-schema shape the LLM expects.
	Schema() llm.ToolDef

	// Run executes the tool with arguments decoded from the model's call.
	Run(ctx context.Context, args map[string]any) Result
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

// intArg extracts an optional integer argument; JSON numbers decode as
// float64.
func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

// resolvePath roots rel inside workspace and rejects escapes.
func resolvePath(workspace, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		// Absolute paths are allowed only when already inside the workspace.
		abs := filepath.Clean(rel)
		if !strings.HasPrefix(abs+string(filepath.Separator), filepath.Clean(workspace)+string(filepath.Separator)) {
			return "", fmt.Errorf("path %q is outside the workspace", rel)
		}
		return abs, nil
	}
	abs := filepath.Clean(filepath.Join(workspace, rel))
	relBack, err := filepath.Rel(workspace, abs)
	if err != nil || relBack == ".." || strings.HasPrefix(relBack, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the workspace", rel)
	}
	return abs, nil
}
