package validators

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderName(t *testing.T) {
	valid := []string{"photos", "Tax 2024", "a.b.c", "résumé", "comet"}
	for _, name := range valid {
		assert.NoError(t, FolderName(name), name)
	}

	invalid := []string{
		"",
		"a/b",
		`a\b`,
		"a:b",
		"what?",
		"star*",
		"pipe|name",
		"quote\"name",
		"tab\tname",
		"CON",
		"con",
		"lpt9",
		"Nul",
	}
	for _, name := range invalid {
		assert.Error(t, FolderName(name), "%q should be rejected", name)
	}
}

func TestMustDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, MustDir(dir))

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, MustDir(file))
	assert.Error(t, MustDir(filepath.Join(dir, "missing")))
}

func TestMustExist(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.NoError(t, MustExist(file))
	assert.NoError(t, MustExist(dir))
	assert.Error(t, MustExist(filepath.Join(dir, "missing")))
}
