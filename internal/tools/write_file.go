package tools

import (
	"context"
	"os"
	"path/filepath"

	"rocket-cli/internal/llm"
)

// WriteFile creates or overwrites a file. Overwrites keep a .bak copy of the
// previous content so an agent mistake is recoverable.
type WriteFile struct {
	workspace string
}

func NewWriteFile(workspace string) *WriteFile {
	return &WriteFile{workspace: workspace}
}

func (t *WriteFile) Name() string       { return "write_file" }
func (t *WriteFile) Category() Category { return CategoryWrite }
func (t *WriteFile) Description() string {
	return "Write content to a file in the workspace, creating parent directories as needed."
}

func (t *WriteFile) Schema() llm.ToolDef {
	return llm.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    map[string]any{"type": "string", "description": "Path relative to the workspace root"},
				"content": map[string]any{"type": "string", "description": "Full file content to write"},
			},
			"required": []string{"path", "content"},
		},
	}
}

func (t *WriteFile) Run(_ context.Context, args map[string]any) Result {
	rel, err := stringArg(args, "path")
	if err != nil {
		return Fail("%v", err)
	}
	content, ok := args["content"].(string)
	if !ok {
		return Fail("argument %q must be a string", "content")
	}
	path, err := resolvePath(t.workspace, rel)
	if err != nil {
		return Fail("%v", err)
	}

	created := true
	if prev, err := os.ReadFile(path); err == nil {
		created = false
		if err := os.WriteFile(path+".bak", prev, 0o644); err != nil {
			return Fail("backup %s: %v", rel, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Fail("create directories for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Fail("write %s: %v", rel, err)
	}

	return Ok(map[string]any{"path": rel, "created": created}, map[string]any{
		"bytes": len(content),
	})
}
