package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9100
  cors_origins:
    - "https://studio.example.com"
build:
  dir: /var/lib/pagesmith/builds
  timeout_ms: 45000
  node_modules: /opt/pagesmith/node_modules
templates:
  dir: /opt/pagesmith/templates
s3:
  enabled: true
  bucket: kebapps
  prefix: sites
  region: eu-central-1
logging:
  level: debug
  format: console
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"https://studio.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/var/lib/pagesmith/builds", cfg.Build.Dir)
	assert.Equal(t, 45*time.Second, cfg.Build.Timeout())
	assert.Equal(t, "/opt/pagesmith/templates", cfg.Templates.Dir)
	assert.True(t, cfg.S3.Enabled)
	assert.Equal(t, "kebapps", cfg.S3.Bucket)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "server:\n  port: 9100\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "builds", cfg.Build.Dir)
	assert.Equal(t, time.Minute, cfg.Build.Timeout())
	assert.Equal(t, "templates", cfg.Templates.Dir)
	assert.Equal(t, cfg.Build.Dir, cfg.Publish.Dir, "publish dir falls back to the build dir")
	assert.False(t, cfg.S3.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAGESMITH_BUILD_TIMEOUT_MS", "5000")
	t.Setenv("PAGESMITH_S3_BUCKET", "override-bucket")
	t.Setenv("PORT", "3000")

	cfg, err := LoadFromFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Build.Timeout())
	assert.Equal(t, "override-bucket", cfg.S3.Bucket)
	assert.Equal(t, 3000, cfg.Server.Port, "plain PORT wins over the config file")
}

func TestValidation(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, "s3:\n  enabled: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3.bucket")

	_, err = LoadFromFile(writeConfig(t, "server:\n  port: 70000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
