package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CONFIG_PATH at a fresh dir and runs from there so no stray .env is picked up
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "config.json"))
	for _, name := range []string{
		"SERVER_ADDRESS", "STORAGE_DRIVER", "DATABASE_PATH", "DATABASE_URL",
		"REDIS_ADDR", "CATALOG_PAGE_SIZE", "PREFETCH_SCHEDULE",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.ServerAddress)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "artgallery.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "art_gallery_", cfg.Storage.KeyPrefix)
	assert.Equal(t, 10, cfg.Catalog.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Catalog.FetchTimeout())
	assert.True(t, cfg.Catalog.Met.Enabled)
	assert.True(t, cfg.Catalog.Harvard.Enabled)
	assert.Empty(t, cfg.Prefetch.Schedule)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{
		"serverAddress": ":7000",
		"catalog": {"pageSize": 20, "harvard": {"enabled": false}},
		"prefetch": {"schedule": "@hourly"}
	}`), 0o644))

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.ServerAddress)
		assert.Equal(t, 20, cfg.Catalog.PageSize)
		assert.False(t, cfg.Catalog.Harvard.Enabled)
		assert.Equal(t, "@hourly", cfg.Prefetch.Schedule)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("SERVER_ADDRESS", ":9000")
		t.Setenv("CATALOG_PAGE_SIZE", "5")
		t.Setenv("PREFETCH_SCHEDULE", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.ServerAddress)
		assert.Equal(t, 5, cfg.Catalog.PageSize)
		assert.Empty(t, cfg.Prefetch.Schedule)
	})
}

func TestLoadStorageDriver(t *testing.T) {
	t.Run("database url implies postgres", func(t *testing.T) {
		isolate(t)
		t.Setenv("DATABASE_URL", "postgres://localhost/gallery")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	})

	t.Run("redis gets a default address", func(t *testing.T) {
		isolate(t)
		t.Setenv("STORAGE_DRIVER", "Redis")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DriverRedis, cfg.Storage.Driver)
		assert.Equal(t, "localhost:6379", cfg.Storage.RedisAddr)
	})

	t.Run("postgres without url is rejected", func(t *testing.T) {
		isolate(t)
		t.Setenv("STORAGE_DRIVER", "postgres")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		isolate(t)
		t.Setenv("STORAGE_DRIVER", "mongo")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{not json`), 0o644))

	_, err := Load()
	assert.Error(t, err)
}
