package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/agent"
	"github.com/vaibhavp4/kompow/internal/flashcards"
	"github.com/vaibhavp4/kompow/internal/knowledge"
)

var tracer = otel.Tracer("kompow.pipeline")

// timeNow is a test hook.
var timeNow = time.Now

const (
	// DefaultMaxProfileDocs caps how many stored documents feed profile
	// analysis.
	DefaultMaxProfileDocs = 50

	// DefaultMaxCards caps how many flashcards a run asks for.
	DefaultMaxCards = 10

	// MinPipelineResearchLen is the minimum researched-content length a
	// batch run accepts before generating flashcards.
	MinPipelineResearchLen = 100

	// MinOnDemandResearchLen is the looser gate for interactive,
	// single-topic generation.
	MinOnDemandResearchLen = 50

	// documentSeparator joins profile documents into one analysis input.
	documentSeparator = "\n\n---\n\n"

	// storageSource tags flashcard sets created by batch runs.
	storageSource = "pipeline"
)

// Config tunes a Pipeline. Zero values take defaults.
type Config struct {
	// MaxProfileDocs caps documents fed to profile analysis.
	MaxProfileDocs int `koanf:"max_profile_docs"`

	// MaxCards caps flashcards requested per run.
	MaxCards int `koanf:"max_cards"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxProfileDocs <= 0 {
		c.MaxProfileDocs = DefaultMaxProfileDocs
	}
	if c.MaxCards <= 0 {
		c.MaxCards = DefaultMaxCards
	}
}

// Pipeline executes content-pipeline runs against user collections.
type Pipeline struct {
	config   Config
	producer agent.TextProducer
	repo     *flashcards.Repository
	logger   *zap.Logger
}

// New creates a Pipeline. producer may be nil when the agent capability is
// not configured; every run then aborts at init with ErrNoProducer.
func New(cfg Config, producer agent.TextProducer, repo *flashcards.Repository, logger *zap.Logger) *Pipeline {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if repo == nil {
		repo = flashcards.NewRepository(logger)
	}
	return &Pipeline{
		config:   cfg,
		producer: producer,
		repo:     repo,
		logger:   logger,
	}
}

// Run executes one pipeline run for one user and returns its Report. Run
// never panics and never returns an error: every failure is carried in the
// Report so batch callers can keep going.
func (p *Pipeline) Run(ctx context.Context, col knowledge.Collection, userID string) *Report {
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	report := &Report{
		RunID:     uuid.NewString(),
		UserID:    userID,
		StartedAt: timeNow().UTC(),
	}
	span.SetAttributes(
		attribute.String("run.id", report.RunID),
		attribute.String("user.id", userID),
	)
	logger := p.logger.With(
		zap.String("run_id", report.RunID),
		zap.String("user_id", userID),
	)
	logger.Info("pipeline run started")

	p.execute(ctx, col, userID, report, logger)

	report.CompletedAt = timeNow().UTC()
	RunsTotal.WithLabelValues(string(report.Status)).Inc()
	RunDuration.Observe(report.CompletedAt.Sub(report.StartedAt).Seconds())
	if report.Err != nil {
		logger.Warn("pipeline run aborted",
			zap.Error(report.Err),
			zap.Int("stages_run", len(report.Stages)))
	} else {
		logger.Info("pipeline run finished",
			zap.Int("cards", report.CardCount),
			zap.String("topic", report.Topic))
	}
	return report
}

func (p *Pipeline) execute(ctx context.Context, col knowledge.Collection, userID string, report *Report, logger *zap.Logger) {
	// Init: preconditions only, no external calls.
	if err := p.runStage(report, StageInit, func() (string, error) {
		if p.producer == nil {
			return "", ErrNoProducer
		}
		if col == nil {
			return "", knowledge.ErrUnavailable
		}
		if col.Degraded() {
			// A degraded collection cannot serve profile documents;
			// there is nothing to analyze.
			return "", fmt.Errorf("%w: collection %q is degraded", ErrNoDocuments, col.Name())
		}
		return fmt.Sprintf("collection %s", col.Name()), nil
	}); err != nil {
		p.abort(report, err)
		return
	}

	// Profile analysis: the user's documents become a learning-interest
	// summary.
	var interests string
	if err := p.runStage(report, StageProfile, func() (string, error) {
		docs := col.Search(ctx, "", p.config.MaxProfileDocs)
		if len(docs) == 0 {
			return "", ErrNoDocuments
		}
		joined := joinDocuments(docs)
		if joined == "" {
			return "", ErrNoDocuments
		}
		out, err := p.producer.Produce(ctx, agent.ProfilePrompt(joined))
		if err != nil {
			return "", fmt.Errorf("profile analysis: %w", err)
		}
		interests = strings.TrimSpace(out)
		if interests == "" {
			return "", ErrEmptyProfile
		}
		return fmt.Sprintf("%d docs, %d chars of interests", len(docs), len(interests)), nil
	}); err != nil {
		p.abort(report, err)
		return
	}

	// Research: gather content about the interests, gated on length so a
	// refusal or stub answer never becomes a flashcard set.
	var research string
	if err := p.runStage(report, StageResearch, func() (string, error) {
		out, err := p.producer.Produce(ctx, agent.ResearchPrompt(interests))
		if err != nil {
			return "", fmt.Errorf("research: %w", err)
		}
		research = strings.TrimSpace(out)
		if len(research) < MinPipelineResearchLen {
			return "", fmt.Errorf("%w: got %d chars, need %d",
				ErrInsufficientResearch, len(research), MinPipelineResearchLen)
		}
		return fmt.Sprintf("%d chars researched", len(research)), nil
	}); err != nil {
		p.abort(report, err)
		return
	}

	// Generation.
	var cards []flashcards.Card
	if err := p.runStage(report, StageGeneration, func() (string, error) {
		out, err := p.producer.Produce(ctx, agent.FlashcardPrompt(research, p.config.MaxCards))
		if err != nil {
			return "", fmt.Errorf("generation: %w", err)
		}
		result := agent.ParseResponse(out, logger)
		if !result.OK() || len(result.Cards) == 0 {
			return "", fmt.Errorf("%w: %s", ErrNoCards, snippet(out, 120))
		}
		cards = result.Cards
		return fmt.Sprintf("%d cards", len(cards)), nil
	}); err != nil {
		p.abort(report, err)
		return
	}
	report.CardCount = len(cards)

	// Storage is best-effort: the run is Done even if persisting fails.
	report.Topic = topicLabel(timeNow())
	if err := p.runStage(report, StageStorage, func() (string, error) {
		payload, err := json.Marshal(cards)
		if err != nil {
			return "", fmt.Errorf("encoding cards: %w", err)
		}
		if err := p.repo.StoreSet(ctx, col, userID, report.Topic, payload, storageSource); err != nil {
			return "", fmt.Errorf("storing flashcard set: %w", err)
		}
		return fmt.Sprintf("stored under %q", report.Topic), nil
	}); err != nil {
		logger.Warn("flashcard storage failed, run still complete", zap.Error(err))
	}

	report.Status = RunDone
}

// runStage executes fn, records its StageResult, and returns fn's error.
func (p *Pipeline) runStage(report *Report, stage Stage, fn func() (string, error)) error {
	result := StageResult{
		Stage:     stage,
		StartedAt: timeNow().UTC(),
	}
	output, err := fn()
	result.CompletedAt = timeNow().UTC()
	result.Output = output
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
	} else {
		result.Status = StatusCompleted
	}
	report.Stages = append(report.Stages, result)
	StagesTotal.WithLabelValues(string(stage), string(result.Status)).Inc()
	return err
}

// abort marks the report terminal-failed and records the remaining stages
// as skipped.
func (p *Pipeline) abort(report *Report, err error) {
	report.Status = RunAborted
	report.Err = err

	seen := make(map[Stage]bool, len(report.Stages))
	for _, r := range report.Stages {
		seen[r.Stage] = true
	}
	for _, stage := range AllStages() {
		if seen[stage] {
			continue
		}
		report.Stages = append(report.Stages, StageResult{
			Stage:  stage,
			Status: StatusSkipped,
		})
		StagesTotal.WithLabelValues(string(stage), string(StatusSkipped)).Inc()
	}
}

// TopicResult is the outcome of an interactive single-topic generation.
type TopicResult struct {
	Cards    []flashcards.Card
	Research string
	Stored   bool

	// StoreErr holds the storage failure when Stored is false; like batch
	// runs, storage is best-effort.
	StoreErr error
}

// GenerateForTopic researches one caller-provided topic and generates and
// stores flashcards for it. The research gate is looser than batch runs
// since the user asked explicitly. Returns the sentinel failures from this
// package plus wrapped producer errors.
func (p *Pipeline) GenerateForTopic(ctx context.Context, col knowledge.Collection, userID, topic string) (*TopicResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.GenerateForTopic")
	defer span.End()

	if p.producer == nil {
		return nil, ErrNoProducer
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	span.SetAttributes(attribute.String("topic", topic))

	out, err := p.producer.Produce(ctx, agent.ResearchPrompt(topic))
	if err != nil {
		return nil, fmt.Errorf("research: %w", err)
	}
	research := strings.TrimSpace(out)
	if len(research) < MinOnDemandResearchLen {
		return nil, fmt.Errorf("%w: got %d chars, need %d",
			ErrInsufficientResearch, len(research), MinOnDemandResearchLen)
	}

	out, err = p.producer.Produce(ctx, agent.FlashcardPrompt(research, p.config.MaxCards))
	if err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}
	result := agent.ParseResponse(out, p.logger)
	if !result.OK() || len(result.Cards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCards, snippet(out, 120))
	}

	tr := &TopicResult{
		Cards:    result.Cards,
		Research: research,
	}
	payload, err := json.Marshal(result.Cards)
	if err != nil {
		tr.StoreErr = fmt.Errorf("encoding cards: %w", err)
		return tr, nil
	}
	if err := p.repo.StoreSet(ctx, col, userID, topic, payload, "on_demand"); err != nil {
		p.logger.Warn("on-demand flashcard storage failed",
			zap.String("user_id", userID),
			zap.String("topic", topic),
			zap.Error(err))
		tr.StoreErr = err
		return tr, nil
	}
	tr.Stored = true
	return tr, nil
}

func joinDocuments(docs []knowledge.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if c := strings.TrimSpace(d.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, documentSeparator)
}

func topicLabel(t time.Time) string {
	return "Automated Flashcards - " + t.UTC().Format("2006-01-02 15:04")
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
