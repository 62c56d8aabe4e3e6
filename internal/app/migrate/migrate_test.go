package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSourcePrefersDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_init.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o600))

	fsys, source, err := migrationSource(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, source)
	names, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_init.sql"}, names)
}

func TestMigrationSourceFallsBackToEmbedded(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		fsys, source, err := migrationSource(dir)
		require.NoError(t, err)
		assert.Equal(t, "embedded", source)

		names, err := fs.Glob(fsys, "*.sql")
		require.NoError(t, err)
		assert.Equal(t, []string{"00001_create_users.sql", "00002_create_tasks.sql"}, names)
	}
}

func TestMigrationSourceRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.sql")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, _, err := migrationSource(path)
	assert.Error(t, err)
}

func TestEmbeddedMigrationsAreAnnotated(t *testing.T) {
	fsys, _, err := migrationSource("")
	require.NoError(t, err)
	names, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "-- +goose Up"), name)
		assert.True(t, strings.Contains(string(body), "-- +goose Down"), name)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, "postgres://localhost/db", "", nil)
	assert.Error(t, err)
}
