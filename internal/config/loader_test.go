package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.Equal(t, TLSProfileIntermediate, cfg.TLSProfile)
	assert.Equal(t, AppLogModeJournal, cfg.AppLogMode)
	assert.Equal(t, "/etc/steward/projects.d", cfg.Paths.ProjectsDir)
}

func TestLoadConfig_PartialOverlay(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), `
tlsProfile: modern
email: ops@example.com
paths:
  appsDir: /opt/apps
timeouts:
  issuance: 5m
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, TLSProfileModern, cfg.TLSProfile)
	assert.Equal(t, "ops@example.com", cfg.Email)
	assert.Equal(t, "/opt/apps", cfg.Paths.AppsDir)
	assert.Equal(t, 5*time.Minute, cfg.Timeouts.Issuance)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, AppLogModeJournal, cfg.AppLogMode)
	assert.Equal(t, "/etc/nginx/sites-enabled", cfg.Paths.SitesEnabled)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Reload)
}

func TestLoadConfig_InvalidProfileRejected(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "tlsProfile: ancient\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tlsProfile")
}

func TestLoadConfig_InvalidLogModeRejected(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "appLogMode: syslog\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appLogMode")
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "paths: [not: a: mapping\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
