package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	t.Setenv("ROCKET_DATA_DIR", t.TempDir())

	require.NoError(t, Set("ROCKET_MODEL", "gpt-4o"))
	require.NoError(t, Set("ROCKET_PROVIDER", "openai"))

	v, err := Get("ROCKET_MODEL")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", v)

	values, err := ReadFile()
	require.NoError(t, err)
	assert.Equal(t, "openai", values["ROCKET_PROVIDER"])
}

func TestGetMissingFile(t *testing.T) {
	t.Setenv("ROCKET_DATA_DIR", t.TempDir())

	v, err := Get("ROCKET_MODEL")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSetRejectsUnknownKey(t *testing.T) {
	t.Setenv("ROCKET_DATA_DIR", t.TempDir())

	err := Set("ROCKET_NOT_A_KEY", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestUnset(t *testing.T) {
	t.Setenv("ROCKET_DATA_DIR", t.TempDir())

	require.NoError(t, Set("ROCKET_MODEL", "llama3.2"))
	require.NoError(t, Unset("ROCKET_MODEL"))

	v, err := Get("ROCKET_MODEL")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestKeysDerivedFromStruct(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "ROCKET_MODEL")
	assert.Contains(t, keys, "OPENAI_API_KEY")
	assert.Contains(t, keys, "ROCKET_OLLAMA_URL")
}
