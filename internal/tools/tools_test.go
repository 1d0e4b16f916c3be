package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, "notes.txt"), []byte("one\ntwo\nthree\nfour"), 0o644))
	tool := NewReadFile(ws)

	t.Run("whole file", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"path": "notes.txt"})
		require.True(t, res.OK, res.Error)
		data := res.Data.(map[string]any)
		assert.Equal(t, "one\ntwo\nthree\nfour", data["content"])
	})

	t.Run("line range", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{
			"path": "notes.txt", "start_line": float64(2), "end_line": float64(3),
		})
		require.True(t, res.OK, res.Error)
		data := res.Data.(map[string]any)
		assert.Equal(t, "two\nthree", data["content"])
	})

	t.Run("missing file", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"path": "nope.txt"})
		require.False(t, res.OK)
		assert.Contains(t, res.Error, "not found")
	})

	t.Run("escape rejected", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"path": "../outside.txt"})
		require.False(t, res.OK)
		assert.Contains(t, res.Error, "outside the workspace")
	})

	t.Run("directory rejected", func(t *testing.T) {
		require.NoError(t, os.Mkdir(filepath.Join(ws, "sub"), 0o755))
		res := tool.Run(context.Background(), map[string]any{"path": "sub"})
		require.False(t, res.OK)
		assert.Contains(t, res.Error, "directory")
	})
}

func TestWriteFile(t *testing.T) {
	ws := t.TempDir()
	tool := NewWriteFile(ws)

	res := tool.Run(context.Background(), map[string]any{"path": "out/new.txt", "content": "hello"})
	require.True(t, res.OK, res.Error)
	got, err := os.ReadFile(filepath.Join(ws, "out", "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	// Overwriting keeps a backup of the previous content.
	res = tool.Run(context.Background(), map[string]any{"path": "out/new.txt", "content": "updated"})
	require.True(t, res.OK, res.Error)
	bak, err := os.ReadFile(filepath.Join(ws, "out", "new.txt.bak"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(bak))

	res = tool.Run(context.Background(), map[string]any{"path": "../escape.txt", "content": "x"})
	require.False(t, res.OK)
}

func TestListDirectory(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "src", "deep"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "node_modules", "x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".hidden"), []byte("h"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "src", "a.go"), []byte("package src"), 0o644))
	tool := NewListDirectory(ws)

	res := tool.Run(context.Background(), map[string]any{"depth": float64(2)})
	require.True(t, res.OK, res.Error)

	raw, err := json.Marshal(res.Data)
	require.NoError(t, err)
	listing := string(raw)

	assert.Contains(t, listing, "main.go")
	assert.Contains(t, listing, "src")
	assert.Contains(t, listing, filepath.Join("src", "a.go"))
	assert.NotContains(t, listing, "node_modules")
	assert.NotContains(t, listing, ".hidden")
}

func TestSearchFiles(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, "a.go"), []byte("package a\nfunc Alpha() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "b.txt"), []byte("func Beta\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "bin.dat"), []byte("func\x00binary"), 0o644))
	tool := NewSearchFiles(ws)

	t.Run("basic match", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"pattern": `func \w+`})
		require.True(t, res.OK, res.Error)
		matches := res.Data.(map[string]any)["matches"].([]Match)
		require.Len(t, matches, 2)
	})

	t.Run("glob filter", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"pattern": "func", "glob": "*.go"})
		require.True(t, res.OK, res.Error)
		matches := res.Data.(map[string]any)["matches"].([]Match)
		require.Len(t, matches, 1)
		assert.Equal(t, "a.go", matches[0].Path)
		assert.Equal(t, 2, matches[0].Line)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"pattern": "["})
		require.False(t, res.OK)
		assert.Contains(t, res.Error, "invalid pattern")
	})
}

func TestRunCommand(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, "file.txt"), []byte("content"), 0o644))
	tool := NewRunCommand(ws)

	t.Run("allowlisted command", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"command": "ls"})
		require.True(t, res.OK, res.Error)
		data := res.Data.(map[string]any)
		assert.Contains(t, data["stdout"], "file.txt")
		assert.Equal(t, 0, data["exit_code"])
	})

	t.Run("refused binary", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{"command": "rm"})
		require.False(t, res.OK)
		assert.Contains(t, res.Error, "not allowlisted")
	})

	t.Run("args passed through", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{
			"command": "cat", "args": []any{"file.txt"},
		})
		require.True(t, res.OK, res.Error)
		data := res.Data.(map[string]any)
		assert.Equal(t, "content", data["stdout"])
	})

	t.Run("nonzero exit reported", func(t *testing.T) {
		res := tool.Run(context.Background(), map[string]any{
			"command": "cat", "args": []any{"missing.txt"},
		})
		require.True(t, res.OK, res.Error)
		data := res.Data.(map[string]any)
		assert.NotEqual(t, 0, data["exit_code"])
		assert.NotEmpty(t, data["stderr"])
	})
}
