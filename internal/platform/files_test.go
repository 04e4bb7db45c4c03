package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFolderMissingDir(t *testing.T) {
	err := OpenFolder(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestOpenFolderRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	err := OpenFolder(path)
	assert.ErrorContains(t, err, "not a directory")
}
