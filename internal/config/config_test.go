package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaibhavp4/kompow/internal/knowledge"
	"github.com/vaibhavp4/kompow/internal/logging"
)

func validConfig() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "api_user", cfg.Server.DefaultUser)
	assert.Equal(t, "data/knowledge", cfg.Store.Path)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "out of range"},
		{"empty store path", func(c *Config) { c.Store = knowledge.Config{} }, "store"},
		{"bad log level", func(c *Config) { c.Logging = logging.Config{Level: "loud", Format: "json"} }, "logging"},
		{"bad pipeline user", func(c *Config) { c.Pipeline.Users = []string{"  "} }, "pipeline.users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_PipelineUsersOK(t *testing.T) {
	cfg := validConfig()
	cfg.Pipeline.Users = []string{"alice@example.com", "bob"}
	assert.NoError(t, cfg.Validate())
}
