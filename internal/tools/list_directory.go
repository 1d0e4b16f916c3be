package tools

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"rocket-cli/internal/llm"
)

// skipDirs are never descended into; they are large and never useful to the
// model.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// ListDirectory lists workspace entries up to a depth.
type ListDirectory struct {
	workspace string
}

func NewListDirectory(workspace string) *ListDirectory {
	return &ListDirectory{workspace: workspace}
}

func (t *ListDirectory) Name() string       { return "list_directory" }
func (t *ListDirectory) Category() Category { return CategoryRead }
func (t *ListDirectory) Description() string {
	return "List files and directories under a workspace path."
}

func (t *ListDirectory) Schema() llm.ToolDef {
	return llm.ToolDef{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":        map[string]any{"type": "string", "description": "Directory relative to the workspace root (default: \".\")"},
				"depth":       map[string]any{"type": "integer", "description": "How many levels to descend (default 1)"},
				"show_hidden": map[string]any{"type": "boolean", "description": "Include dotfiles (default false)"},
			},
		},
	}
}

func (t *ListDirectory) Run(_ context.Context, args map[string]any) Result {
	rel := "."
	if v, ok := args["path"].(string); ok && v != "" {
		rel = v
	}
	depth := intArg(args, "depth", 1)
	if depth < 1 {
		depth = 1
	}
	showHidden, _ := args["show_hidden"].(bool)

	root, err := resolvePath(t.workspace, rel)
	if err != nil {
		return Fail("%v", err)
	}

	type entry struct {
		Path  string `json:"path"`
		IsDir bool   `json:"is_dir"`
		Size  int64  `json:"size"`
	}
	var entries []entry

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if path == root {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() && skipDirs[name] {
			return filepath.SkipDir
		}
		if !showHidden && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Count(relPath, string(filepath.Separator)) >= depth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		var size int64
		if info, err := d.Info(); err == nil && !d.IsDir() {
			size = info.Size()
		}
		entries = append(entries, entry{Path: relPath, IsDir: d.IsDir(), Size: size})
		return nil
	})
	if walkErr != nil {
		return Fail("list %s: %v", rel, walkErr)
	}

	return Ok(map[string]any{"entries": entries}, map[string]any{
		"path":  rel,
		"count": len(entries),
	})
}
