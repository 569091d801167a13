package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/ordertasks/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	t.Run("Should use defaults when the file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7470", cfg.Server.Listen)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, int64(1), cfg.Tasks.DefaultAuthorID)
		assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
		assert.False(t, cfg.Dispatch.StopOnError)
		assert.Equal(t, DefaultShippingMethods(), cfg.Tasks.ShippingMethods)
	})

	t.Run("Should merge the YAML file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, `
server:
  listen: 0.0.0.0:9000
tasks:
  admin_email: admin@example.com
  shipping_methods:
    - id: express
      title: Express
      rate_id: express:9
webhook:
  timeout: 3s
dispatch:
  stop_on_error: true
log:
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
		assert.Equal(t, "admin@example.com", cfg.Tasks.AdminEmail)
		assert.Equal(t, []models.ShippingMethod{{ID: "express", Title: "Express", RateID: "express:9"}}, cfg.Tasks.ShippingMethods)
		assert.Equal(t, 3*time.Second, cfg.Webhook.Timeout)
		assert.True(t, cfg.Dispatch.StopOnError)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, int64(1), cfg.Tasks.DefaultAuthorID)
	})

	t.Run("Should let the environment win", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, "log:\n  level: warn\n")
		t.Setenv("ORDERTASKS_LOG_LEVEL", "debug")
		t.Setenv("ORDERTASKS_TASKS_DEFAULT_AUTHOR_ID", "7")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, int64(7), cfg.Tasks.DefaultAuthorID)
	})

	t.Run("Should read a .env file next to the config", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".env"), "ORDERTASKS_TASKS_SITE_NAME=Corner Shop\n")
		t.Setenv("ORDERTASKS_TASKS_SITE_NAME", "")
		require.NoError(t, os.Unsetenv("ORDERTASKS_TASKS_SITE_NAME"))

		cfg, err := Load(filepath.Join(dir, "config.yaml"))

		require.NoError(t, err)
		assert.Equal(t, "Corner Shop", cfg.Tasks.SiteName)
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, "tasks:\n  admin_email: not-an-email\n")

		_, err := Load(path)

		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("Should fail on malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		writeFile(t, path, "server: [unclosed")

		_, err := Load(path)

		assert.ErrorContains(t, err, "parsing config file")
	})
}

func TestSave(t *testing.T) {
	t.Run("Should write a file Load reads back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		cfg := Default()
		cfg.Tasks.AdminEmail = "ops@example.com"
		cfg.Webhook.Timeout = 4 * time.Second

		require.NoError(t, Save(path, cfg))
		loaded, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", loaded.Tasks.AdminEmail)
		assert.Equal(t, 4*time.Second, loaded.Webhook.Timeout)
	})

	t.Run("Should refuse a nil config", func(t *testing.T) {
		assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
	})
}

func TestTransformEnvKey(t *testing.T) {
	key, value := transformEnvKey("ORDERTASKS_WEBHOOK_USER_AGENT", "x")

	assert.Equal(t, "webhook.user_agent", key)
	assert.Equal(t, "x", value)
}

func TestConfig_Merge(t *testing.T) {
	t.Run("Should only fill zero fields", func(t *testing.T) {
		cfg := &Config{Server: ServerConfig{Listen: "127.0.0.1:1"}}

		require.NoError(t, cfg.Merge(Default()))

		assert.Equal(t, "127.0.0.1:1", cfg.Server.Listen)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, int64(1), cfg.Tasks.DefaultAuthorID)
	})
}
