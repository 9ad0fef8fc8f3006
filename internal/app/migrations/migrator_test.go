package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", VersionOf("001_init.sql"))
	assert.Equal(t, "010", VersionOf("migrations/010_add_index.sql"))
}

func TestVersions_SortedSQLOnly(t *testing.T) {
	m := NewMigrator(nil, zerolog.Nop()).WithSource(fstest.MapFS{
		"002_b.sql":  {Data: []byte("SELECT 2;")},
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"README.md":  {Data: []byte("docs")},
		"sub/x.sql":  {Data: []byte("SELECT 3;")},
	})
	files, err := m.Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)
}

func TestEmbeddedSchema(t *testing.T) {
	files, err := NewMigrator(nil, zerolog.Nop()).Versions()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])
}
