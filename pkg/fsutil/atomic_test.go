package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicOverwrites(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(filename, []byte("initial"), 0o644))
	require.NoError(t, WriteFileAtomic(filename, []byte("overwritten"), 0o644))

	got, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "overwritten", string(got))

	entries, err := os.ReadDir(filepath.Dir(filename))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicCreatesDir(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "dir", "file.txt")
	require.NoError(t, WriteFileAtomic(filename, []byte("x"), 0o600))

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
