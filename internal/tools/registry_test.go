package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(t.TempDir())

	assert.Equal(t, []string{"list_directory", "read_file", "run_command", "search_files", "write_file"}, r.Names())
	for _, tool := range r.List() {
		assert.NotEmpty(t, tool.Description())
		assert.NotEmpty(t, tool.Schema().Parameters)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewReadFile(t.TempDir())))

	err := r.Register(NewReadFile(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestSchemasFiltered(t *testing.T) {
	r := DefaultRegistry(t.TempDir())

	defs := r.Schemas([]string{"read_file", "search_files", "no_such_tool"})
	require.Len(t, defs, 2)
	assert.Equal(t, "read_file", defs[0].Name)
	assert.Equal(t, "search_files", defs[1].Name)

	all := r.Schemas(nil)
	assert.Len(t, all, 5)
}

func TestCategorySafety(t *testing.T) {
	assert.True(t, CategoryRead.Safe())
	assert.True(t, CategoryAnalyze.Safe())
	assert.False(t, CategoryWrite.Safe())
	assert.False(t, CategoryExecute.Safe())

	assert.True(t, CategoryWrite.NeedsConfirmation())
	assert.True(t, CategoryExecute.NeedsConfirmation())
	assert.False(t, CategoryRead.NeedsConfirmation())
}

func TestFailNeverEmpty(t *testing.T) {
	res := Fail("")
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
}
