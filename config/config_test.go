package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "operation failed"
	testErr := errors.New("internal database error")

	// nil err returns the fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release mode hides error details
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	// debug mode returns err.Error()
	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))

	// nil GlobalConfig is treated as a development environment
	GlobalConfig = nil
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_EmbeddedDefaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	// An unreadable explicit path falls back to the embedded defaults.
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.False(t, cfg.Email.Enabled)
	assert.InDelta(t, 1.50, cfg.Billing.Threshold, 0.001)
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: ":9999"
billing:
  threshold: 5.00
jwt:
  expire_hours: 72
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Port)
	assert.InDelta(t, 5.00, cfg.Billing.Threshold, 0.001)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	// Untouched keys keep their embedded defaults.
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Database.Host)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	t.Setenv("KONTOR_SERVER_PORT", ":7001")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Port)
}
