package resilience

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyPoolEmpty(t *testing.T) {
	_, err := NewKeyPool(nil)
	assert.ErrorIs(t, err, ErrEmptyPool)

	_, err = NewKeyPool([]string{})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestKeyPoolAdvanceWraps(t *testing.T) {
	pool, err := NewKeyPool([]string{"k1", "k2", "k3"})
	require.NoError(t, err)
	require.Equal(t, 3, pool.Size())

	idx, key := pool.Current()
	assert.Equal(t, 0, idx)
	assert.Equal(t, "k1", key)

	pool.Advance()
	idx, key = pool.Current()
	assert.Equal(t, 1, idx)
	assert.Equal(t, "k2", key)

	pool.Advance()
	pool.Advance() // wraps back to the start
	idx, key = pool.Current()
	assert.Equal(t, 0, idx)
	assert.Equal(t, "k1", key)
}

func TestKeyPoolSingleKey(t *testing.T) {
	pool, err := NewKeyPool([]string{"only"})
	require.NoError(t, err)

	pool.Advance()
	idx, key := pool.Current()
	assert.Equal(t, 0, idx)
	assert.Equal(t, "only", key)
}

func TestLoadKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.txt")
	content := "# header comment\nkey-one\n\nkey-two # trailing comment\n   key-three   \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	keys, err := LoadKeys(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"key-one", "key-two", "key-three"}, keys)
}

func TestLoadKeysMissingFile(t *testing.T) {
	_, err := LoadKeys(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
