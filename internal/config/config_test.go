package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fwrules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "file", cfg.Source.Provider)
	assert.Equal(t, []string{".rules", ".fw"}, cfg.Validate.Extensions)
	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: text
server:
  listen_address: 127.0.0.1:9090
  read_timeout: 3s
metrics:
  enabled: true
source:
  provider: sqlite
  dsn: /var/lib/console/profiles.db
validate:
  workers: 8
  output: json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.ListenAddress)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "sqlite", cfg.Source.Provider)
	assert.Equal(t, 8, cfg.Validate.Workers)
	assert.Equal(t, "json", cfg.Validate.Output)
}

func TestLoadConfigDefersValidation(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "source:\n  provider: mariadb\nlog:\n  level: loud\n"))
	require.NoError(t, err, "loading must not validate before later layers apply")
	assert.Equal(t, "mariadb", cfg.Source.Provider)

	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.NotContains(t, err.Error(), "source.dsn")

	_, err = LoadConfig(writeConfig(t, "log: [not, a, map]"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateSource(t *testing.T) {
	assert.NoError(t, ValidateSource(SourceConfig{Provider: "file"}))
	assert.NoError(t, ValidateSource(SourceConfig{Provider: "sqlite", DSN: "profiles.db"}))

	err := ValidateSource(SourceConfig{Provider: "MariaDB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.dsn")
}

func TestEnvOverridesWin(t *testing.T) {
	path := writeConfig(t, "log:\n  level: WARN\nvalidate:\n  workers: 2\n")
	t.Setenv("FWRULES_LOG_LEVEL", "ERROR")
	t.Setenv("FWRULES_VALIDATE_WORKERS", "6")
	t.Setenv("FWRULES_METRICS_ENABLED", "true")

	cfg, err := LoadConfigWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Validate.Workers)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestEnvLayersOverFile(t *testing.T) {
	path := writeConfig(t, "source:\n  provider: sqlite\n")
	cfg, err := LoadConfigWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Error(t, ValidateSource(cfg.Source))

	t.Setenv("FWRULES_SOURCE_DSN", "/var/lib/console/profiles.db")
	cfg, err = LoadConfigWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Source.Provider)
	assert.NoError(t, Validate(cfg))
	assert.NoError(t, ValidateSource(cfg.Source))
}

func TestEnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("FWRULES_SOURCE_PROVIDER", "mysql")
	cfg, err := LoadConfigWithEnvOverrides("")
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Source.Provider)
	assert.NoError(t, Validate(cfg))
	assert.Error(t, ValidateSource(cfg.Source))
}
