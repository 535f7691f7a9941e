// Package embeddings provides embedding generation for the knowledge store.
//
// The embedding capability is derived from an externally supplied OpenAI
// credential. A missing or placeholder credential is not an error: it yields
// no embedder at all, which opens knowledge collections in degraded mode.
// That state is first-class and must remain observable to callers.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/knowledge"
)

// PlaceholderAPIKey is the well-known placeholder shipped in example env
// files. It is treated the same as an absent credential.
const PlaceholderAPIKey = "your_openai_api_key_here"

var (
	// ErrInvalidConfig indicates invalid embedding configuration.
	ErrInvalidConfig = errors.New("invalid embeddings configuration")
)

// Config holds configuration for the embedding service.
type Config struct {
	// APIKey is the OpenAI API key. Empty or PlaceholderAPIKey means no
	// embedding capability.
	APIKey string `koanf:"api_key"`

	// BaseURL is the base URL for the embedding API. Any
	// OpenAI-compatible endpoint works.
	BaseURL string `koanf:"base_url"`

	// Model is the embedding model name.
	Model string `koanf:"model"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
}

// Configured reports whether a usable credential is present.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}

// Service generates embeddings via an OpenAI-compatible API.
type Service struct {
	embedder *embeddings.EmbedderImpl
	config   Config
}

var _ knowledge.Embedder = (*Service)(nil)

// NewService creates an embedding service. The credential must be present;
// use NewFromConfig for the degraded-tolerant construction path.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: API key missing or placeholder", ErrInvalidConfig)
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Service{
		embedder: embedder,
		config:   cfg,
	}, nil
}

// NewFromConfig constructs the optional embedding capability.
//
// A missing or placeholder credential returns (nil, nil): the caller opens
// collections in degraded mode rather than failing. Only genuine
// construction failures return an error.
func NewFromConfig(cfg Config, logger *zap.Logger) (knowledge.Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !cfg.Configured() {
		logger.Warn("embedding credential missing or placeholder; collections will open in degraded mode")
		return nil, nil
	}

	svc, err := NewService(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("embedding service initialized",
		zap.String("model", svc.config.Model),
		zap.String("base_url", svc.config.BaseURL),
	)
	return svc, nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrInvalidConfig)
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vector, nil
}
