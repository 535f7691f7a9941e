// Package config provides configuration loading for kompow.
package config

import (
	"fmt"

	"github.com/vaibhavp4/kompow/internal/httpapi"
	"github.com/vaibhavp4/kompow/internal/knowledge"
	"github.com/vaibhavp4/kompow/internal/logging"
	"github.com/vaibhavp4/kompow/internal/sanitize"
)

// Config is the complete kompow configuration.
type Config struct {
	Server   httpapi.Config   `koanf:"server"`
	Store    knowledge.Config `koanf:"store"`
	OpenAI   OpenAIConfig     `koanf:"openai"`
	Pipeline PipelineConfig   `koanf:"pipeline"`
	Logging  logging.Config   `koanf:"logging"`
}

// OpenAIConfig holds the shared OpenAI credential and model selection for
// both the chat producer and the embedding service.
type OpenAIConfig struct {
	// APIKey may be empty or the well-known placeholder; kompow then runs
	// in degraded mode (no embeddings, no generation).
	APIKey string `koanf:"api_key"`

	// BaseURL points at any OpenAI-compatible endpoint.
	BaseURL string `koanf:"base_url"`

	ChatModel      string `koanf:"chat_model"`
	EmbeddingModel string `koanf:"embedding_model"`
}

// PipelineConfig configures the batch pipeline driver.
type PipelineConfig struct {
	// Users lists the user IDs a batch run processes, in order.
	Users []string `koanf:"users"`

	// Schedule is a five-field cron spec. Empty disables scheduling.
	Schedule string `koanf:"schedule"`

	MaxProfileDocs int `koanf:"max_profile_docs"`
	MaxCards       int `koanf:"max_cards"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	cfg.Server.ApplyDefaults()
	cfg.Store.ApplyDefaults()
	cfg.Logging.ApplyDefaults()

	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.ChatModel == "" {
		cfg.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	for _, user := range c.Pipeline.Users {
		if err := sanitize.ValidateUserID(user); err != nil {
			return fmt.Errorf("pipeline.users: %w", err)
		}
	}
	return nil
}
