package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePorcelain(t *testing.T) {
	out := " M internal/app/app.go\n" +
		"?? newfile.txt\n" +
		"R  old.go -> new.go\n" +
		"A  \"with space.txt\""

	files := ParsePorcelain(out)
	assert.Equal(t, []string{
		"internal/app/app.go",
		"newfile.txt",
		"new.go",
		"with space.txt",
	}, files)
}

func TestParsePorcelainEmpty(t *testing.T) {
	assert.Nil(t, ParsePorcelain(""))
}

func TestParsePRNumber(t *testing.T) {
	n, err := ParsePRNumber("https://github.com/user/repo/pull/123")
	require.NoError(t, err)
	assert.Equal(t, 123, n)

	_, err = ParsePRNumber("https://github.com/user/repo/pull/")
	assert.Error(t, err)

	_, err = ParsePRNumber("not a url")
	assert.Error(t, err)
}

func TestIsProductionBranch(t *testing.T) {
	assert.True(t, IsProductionBranch("main"))
	assert.True(t, IsProductionBranch("master"))
	assert.True(t, IsProductionBranch("release"))
	assert.False(t, IsProductionBranch("rocket/agent/add-auth-1a2b3c4d"))
	assert.False(t, IsProductionBranch("feature/x"))
}
