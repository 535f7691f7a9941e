package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/agent"
	"github.com/vaibhavp4/kompow/internal/config"
	"github.com/vaibhavp4/kompow/internal/embeddings"
	"github.com/vaibhavp4/kompow/internal/flashcards"
	"github.com/vaibhavp4/kompow/internal/knowledge"
	"github.com/vaibhavp4/kompow/internal/logging"
	"github.com/vaibhavp4/kompow/internal/pipeline"
)

// app holds the wired components shared by every command. Construction is
// explicit: nothing here lives in package-level state.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *knowledge.Store
	repo     *flashcards.Repository
	pipeline *pipeline.Pipeline
}

// buildApp loads configuration and constructs the component graph. A
// missing OpenAI credential is not fatal: the store opens degraded and the
// pipeline runs without a producer, failing individual operations instead
// of the process.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewFromConfig(embeddings.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.EmbeddingModel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	store, err := knowledge.NewStore(cfg.Store, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}

	var producer agent.TextProducer
	p, err := agent.NewOpenAIProducer(agent.ProducerConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.ChatModel,
	})
	switch {
	case err == nil:
		producer = p
	case errors.Is(err, agent.ErrNotConfigured):
		logger.Warn("no OpenAI credential: flashcard generation disabled")
	default:
		return nil, fmt.Errorf("creating text producer: %w", err)
	}

	repo := flashcards.NewRepository(logger)
	pipe := pipeline.New(pipeline.Config{
		MaxProfileDocs: cfg.Pipeline.MaxProfileDocs,
		MaxCards:       cfg.Pipeline.MaxCards,
	}, producer, repo, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		repo:     repo,
		pipeline: pipe,
	}, nil
}

func (a *app) close() {
	_ = logging.Sync(a.logger)
}
