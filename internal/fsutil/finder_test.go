package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFiles(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.yaml"))
	touch(t, filepath.Join(dir, "a.HCL"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "c.jsonc"))
	single := filepath.Join(dir, "b.yaml")

	// --- Act ---
	files, err := FindFiles([]string{dir, single}, ".hcl", ".yaml", ".jsonc")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.HCL"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.jsonc"),
	}, files)
}

func TestFindFilesMissingPath(t *testing.T) {
	_, err := FindFiles([]string{filepath.Join(t.TempDir(), "missing")}, ".hcl")
	assert.Error(t, err)
}
