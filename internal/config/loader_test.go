package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/knowledge", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9999
  default_user: learner
store:
  path: /tmp/kompow-test
  compress: true
pipeline:
  users:
    - alice@example.com
  schedule: "0 6 * * *"
  max_cards: 5
logging:
  level: debug
  format: console
`, 0o600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "learner", cfg.Server.DefaultUser)
	assert.Equal(t, "/tmp/kompow-test", cfg.Store.Path)
	assert.True(t, cfg.Store.Compress)
	assert.Equal(t, []string{"alice@example.com"}, cfg.Pipeline.Users)
	assert.Equal(t, "0 6 * * *", cfg.Pipeline.Schedule)
	assert.Equal(t, 5, cfg.Pipeline.MaxCards)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9999\n", 0o600)
	t.Setenv("KOMPOW_SERVER_PORT", "7777")
	t.Setenv("KOMPOW_OPENAI_API_KEY", "sk-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestLoad_ConventionalOpenAIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-conventional")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-conventional", cfg.OpenAI.APIKey)
}

func TestLoad_NamespacedKeyWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-conventional")
	t.Setenv("KOMPOW_OPENAI_API_KEY", "sk-namespaced")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-namespaced", cfg.OpenAI.APIKey)
}

func TestLoad_RejectsInsecurePermissions(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9999\n", 0o644)

	_, err := Load(path)
	assert.ErrorContains(t, err, "insecure config file permissions")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to open config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a map", 0o600)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, "logging:\n  level: loud\n", 0o600)

	_, err := Load(path)
	assert.ErrorContains(t, err, "config validation failed")
}
