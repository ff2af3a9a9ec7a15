package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "EXPORT_DIR", "AUTH_MODE", "AUTH_HMAC_SECRET", "REDIS_URL",
		"WEBHOOK_URL", "WEBHOOK_SECRET", "LOG_LEVEL", "RATE_RPS", "RATE_BURST", "WEBHOOK_MAX_ATTEMPTS"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "exports", cfg.Export.Dir)
	assert.Equal(t, "dev", cfg.Auth.Mode)
	assert.Equal(t, 10, cfg.Webhook.MaxAttempts)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  addr: ":9000"
  read_header_timeout: 2s
export:
  dir: /var/lib/routeframe
  atomic: true
rate:
  rps: 5
  burst: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("RATE_BURST", "3")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "/var/lib/routeframe", cfg.Export.Dir)
	assert.True(t, cfg.Export.Atomic)
	assert.Equal(t, 5.0, cfg.Rate.RPS)
	assert.Equal(t, 3, cfg.Rate.Burst)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("WEBHOOK_URL")
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WEBHOOK_URL=https://hooks.example.invalid/x\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("WEBHOOK_URL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.invalid/x", cfg.Webhook.URL)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unterminated"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config YAML")

	t.Setenv("RATE_RPS", "fast")
	_, err = Load("")
	assert.ErrorContains(t, err, "RATE_RPS")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Auth.Mode = "hmac"
	assert.Error(t, cfg.Validate())
	cfg.Auth.HMACSecret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.Auth.Mode = "jwks"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Export.Dir = ""
	assert.Error(t, cfg.Validate())
}
