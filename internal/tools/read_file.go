package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rocket-cli/internal/llm"
)

// maxReadBytes caps what a single read returns to keep prompts bounded.
const maxReadBytes = 256 * 1024

// ReadFile returns file contents, optionally a line range.
type ReadFile struct {
	workspace string
}

func NewReadFile(workspace string) *ReadFile {
	return &ReadFile{workspace: workspace}
}

func (t *ReadFile) Name() string       { return "read_file" }
func (t *ReadFile) Category() Category { return CategoryRead }
func (t *ReadFile) Description() string {
	return "Read the contents of a file in the workspace, optionally limited to a line range."
}

func (t *ReadFile) Schema() llm.ToolDef {
	return llm.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":       map[string]any{"type": "string", "description": "Path relative to the workspace root"},
				"start_line": map[string]any{"type": "integer", "description": "First line to return (1-based)"},
				"end_line":   map[string]any{"type": "integer", "description": "Last line to return (inclusive)"},
			},
			"required": []string{"path"},
		},
	}
}

func (t *ReadFile) Run(_ context.Context, args map[string]any) Result {
	rel, err := stringArg(args, "path")
	if err != nil {
		return Fail("%v", err)
	}
	path, err := resolvePath(t.workspace, rel)
	if err != nil {
		return Fail("%v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Fail("file not found: %s", rel)
		}
		return Fail("stat %s: %v", rel, err)
	}
	if info.IsDir() {
		return Fail("%s is a directory; use list_directory", rel)
	}
	if info.Size() > maxReadBytes {
		return Fail("file %s is too large (%d bytes, limit %d); read a line range instead", rel, info.Size(), maxReadBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Fail("read %s: %v", rel, err)
	}

	content := string(data)
	lines := strings.Split(content, "\n")
	total := len(lines)

	start := intArg(args, "start_line", 1)
	end := intArg(args, "end_line", total)
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}
	if start > end {
		return Fail("invalid line range %d-%d (file has %d lines)", start, end, total)
	}
	if start > 1 || end < total {
		content = strings.Join(lines[start-1:end], "\n")
	}

	return Ok(map[string]any{"content": content}, map[string]any{
		"path":  rel,
		"lines": fmt.Sprintf("%d-%d/%d", start, end, total),
		"bytes": len(content),
	})
}
