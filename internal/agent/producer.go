// Package agent provides the text-producing agent capability that backs
// profile analysis, topic research, and flashcard generation.
//
// The capability is a single polymorphic operation: produce text from a
// prompt. The production implementation calls an OpenAI-compatible chat
// model; tests substitute a ProducerFunc. Callers treat every failure as
// stage-local: errors from Produce are converted into structured failure
// values, never propagated across a pipeline-run boundary.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// PlaceholderAPIKey is the well-known placeholder shipped in example env
// files, treated the same as an absent credential.
const PlaceholderAPIKey = "your_openai_api_key_here"

// DefaultTimeout bounds a single model call. The upstream client enforces
// no deadline of its own, and a hanging call would block the whole per-user
// pipeline run.
const DefaultTimeout = 2 * time.Minute

var (
	// ErrNotConfigured indicates a missing or placeholder credential.
	ErrNotConfigured = errors.New("agent capability not configured")

	// ErrProduceFailed wraps transport, quota, and model errors from the
	// underlying call.
	ErrProduceFailed = errors.New("agent produce call failed")
)

// TextProducer is the agent capability consumed by the pipeline and API.
type TextProducer interface {
	// Produce generates text from a prompt. Errors are open-ended
	// (transport, quota, model); callers must catch broadly and convert
	// to a stage-local failure.
	Produce(ctx context.Context, prompt string) (string, error)
}

// ProducerFunc adapts a function to the TextProducer interface.
type ProducerFunc func(ctx context.Context, prompt string) (string, error)

// Produce calls f.
func (f ProducerFunc) Produce(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ProducerConfig holds configuration for the OpenAI-backed producer.
type ProducerConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string `koanf:"api_key"`

	// BaseURL is the chat completions endpoint base URL. Any
	// OpenAI-compatible endpoint works.
	BaseURL string `koanf:"base_url"`

	// Model is the chat model name.
	Model string `koanf:"model"`

	// Timeout bounds a single Produce call.
	Timeout time.Duration `koanf:"timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ProducerConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Configured reports whether a usable credential is present.
func (c ProducerConfig) Configured() bool {
	return c.APIKey != "" && c.APIKey != PlaceholderAPIKey
}

// OpenAIProducer implements TextProducer on an OpenAI-compatible chat model.
type OpenAIProducer struct {
	llm     *openai.LLM
	timeout time.Duration
}

var _ TextProducer = (*OpenAIProducer)(nil)

// NewOpenAIProducer creates the production agent capability. A missing or
// placeholder credential is a configuration error: interactive tools treat
// it as fatal at startup, batch callers as a per-call failure.
func NewOpenAIProducer(cfg ProducerConfig) (*OpenAIProducer, error) {
	cfg.ApplyDefaults()
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: API key missing or placeholder", ErrNotConfigured)
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAIProducer{
		llm:     llm,
		timeout: cfg.Timeout,
	}, nil
}

// Produce generates text from a prompt with the configured deadline.
func (p *OpenAIProducer) Produce(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProduceFailed, err)
	}
	return strings.TrimSpace(out), nil
}

// JoinTopics normalizes a topic list to the comma-separated form the
// research prompt expects.
func JoinTopics(topics []string) string {
	return strings.Join(topics, ", ")
}
