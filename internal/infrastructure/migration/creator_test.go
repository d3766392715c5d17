package migration

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Variant Tables")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)
	assert.Contains(t, mf.UpPath, "add_variant_tables.up.sql")
	assert.Contains(t, mf.DownPath, "add_variant_tables.down.sql")

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Add Variant Tables")
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Variant Tables", "add_variant_tables"},
		{"fix-stock-index", "fix_stock_index"},
		{"Already_snake_case", "already_snake_case"},
		{"trailing space ", "trailing_space"},
		{"weird!!chars##", "weirdchars"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = CreateMigration(dir, "first")
	require.NoError(t, err)

	list, err = ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0], "_first")

	list, err = ListMigrations(dir + "/missing")
	require.NoError(t, err)
	assert.Empty(t, list)
}
