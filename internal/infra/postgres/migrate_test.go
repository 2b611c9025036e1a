package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdered(t *testing.T) {
	ms, err := loadMigrations()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	require.Equal(t, int64(1), ms[0].Version)
	require.Equal(t, "locations", ms[0].Name)
	require.Contains(t, ms[0].SQL, "calibration_readings")
	require.Equal(t, "equipment", ms[1].Name)
	require.Equal(t, int64(2), lastVersion(ms))
}

func TestParseMigrationName(t *testing.T) {
	v, name, err := parseMigrationName("0042_add_index.sql")
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
	require.Equal(t, "add_index", name)

	for _, bad := range []string{"init.sql", "abc_init.sql", "0003_.sql"} {
		_, _, err := parseMigrationName(bad)
		require.Error(t, err, bad)
	}
}

func TestConfigEnabled(t *testing.T) {
	require.False(t, Config{DSN: "  "}.Enabled())
	require.True(t, Config{DSN: "postgres://localhost/lightcast"}.Enabled())
}
