package database

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_OrdersAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"002_photos.sql":   {Data: []byte("SELECT 2;")},
		"001_profiles.sql": {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("notes")},
		"abc_bad.sql":      {Data: []byte("SELECT 0;")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "SELECT 1;", migrations[0].SQL)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(migrationFS, "migrations")
	require.NoError(t, err)

	migrations, err := LoadMigrations(sub)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS profiles")
}
