package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Archive = ArchiveConfig{Backend: "sqlite", Path: "runs.db"}
	cfg.Metrics.Textfile = "hecvat.prom"
	cfg.SetAPIKey("gemini", "secret")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", loaded.Archive.Backend)
	assert.Equal(t, "hecvat.prom", loaded.Metrics.Textfile)
	assert.Equal(t, "secret", loaded.GetAPIKey("gemini"))
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: debug\n"), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "file", cfg.Archive.Backend)
	assert.Equal(t, "references/catalog.yaml", cfg.Inputs.Catalog)
	assert.NotNil(t, cfg.Assistant.Providers)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("archive:\n  backend: s3\n"), 0600))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, `unknown archive backend "s3"`)
}

func TestGetAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "from-env")
	cfg := Default()
	assert.Equal(t, "from-env", cfg.GetAPIKey("gemini"))

	cfg.SetAPIKey("gemini", "stored")
	assert.Equal(t, "stored", cfg.GetAPIKey("gemini"))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, LoadEnv(), "a missing .env is fine")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HECVAT_TEST_VAR=loaded\n"), 0600))
	t.Setenv("HECVAT_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("HECVAT_TEST_VAR"))
	require.NoError(t, LoadEnv())
	assert.Equal(t, "loaded", os.Getenv("HECVAT_TEST_VAR"))
}
