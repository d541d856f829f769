package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.Address)
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 60*time.Second, cfg.UpdateInterval)
	assert.Equal(t, 10*time.Second, cfg.UpdateTimeout)
}

func TestLoad(t *testing.T) {
	t.Run("overrides defaults from yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
log_level: debug
address: "f2:38:b1:3f:40:aa"
update_interval: 30s
`
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Load(path)
		assert.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "f2:38:b1:3f:40:aa", cfg.Address)
		assert.Equal(t, 30*time.Second, cfg.UpdateInterval)
		// Untouched keys keep their defaults
		assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, 10*time.Second, cfg.UpdateTimeout)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		assert.NoError(t, os.WriteFile(path, []byte("log_level: [unterminated"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("applies the configured level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LogLevel = "debug"

		logger, err := cfg.NewLogger()
		assert.NoError(t, err)
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LogLevel = "chatty"

		_, err := cfg.NewLogger()
		assert.Error(t, err)
	})
}
