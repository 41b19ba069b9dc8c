package words

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	d := New([]string{"Apple", " pear ", "", "apple"})
	assert.Equal(t, 2, d.Len())
	assert.True(t, d.Contains("APPLE"))
	assert.True(t, d.Contains("  Pear"))
	assert.False(t, d.Contains("plum"))
	assert.False(t, d.Contains(""))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nQuit\n\nquits\n"), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.True(t, d.Contains("quit"))
	assert.False(t, d.Contains("# comment"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n\n"), 0o644))
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDefault(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)
	assert.Greater(t, d.Len(), 1000)
	for _, w := range []string{"cat", "QUIT", "bread", "planet"} {
		assert.True(t, d.Contains(w), w)
	}

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, d, again)
}
