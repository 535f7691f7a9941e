package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhavp4/kompow/internal/flashcards"
	"github.com/vaibhavp4/kompow/internal/knowledge"
)

// scripted returns queued responses in order and records the prompts it
// received.
type scripted struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scripted) Produce(_ context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i >= len(s.responses) {
		return "", fmt.Errorf("unexpected call %d", i)
	}
	return s.responses[i], nil
}

func withClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

func seededCollection(t *testing.T, userID string, docs ...string) *knowledge.MemCollection {
	t.Helper()
	col := knowledge.NewMemCollection(userID, false)
	for _, d := range docs {
		_, err := col.AddText(context.Background(), d, "test")
		require.NoError(t, err)
	}
	return col
}

var longResearch = strings.Repeat("Cells are the basic unit of life. ", 10)

func cardsJSON(n int) string {
	cards := make([]string, n)
	for i := range cards {
		cards[i] = fmt.Sprintf(`{"question": "Q%d", "answer": "A%d"}`, i+1, i+1)
	}
	return fmt.Sprintf(`{"flashcards": [%s]}`, strings.Join(cards, ", "))
}

func TestRun_FullPass(t *testing.T) {
	withClock(t, time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC))
	col := seededCollection(t, "alice@example.com", "I keep reading about mitosis", "Notes on cell biology")
	producer := &scripted{
		responses: []string{"cell biology, genetics", longResearch, cardsJSON(2)},
	}
	p := New(Config{}, producer, nil, nil)

	report := p.Run(context.Background(), col, "alice@example.com")

	assert.Equal(t, RunDone, report.Status)
	require.NoError(t, report.Err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.CardCount)
	assert.Equal(t, "Automated Flashcards - 2026-03-14 09:26", report.Topic)

	require.Len(t, report.Stages, len(AllStages()))
	for _, stage := range report.Stages {
		assert.Equal(t, StatusCompleted, stage.Status, string(stage.Stage))
	}

	// The generated set must be retrievable under the run's topic label.
	repo := flashcards.NewRepository(nil)
	sets := repo.RetrieveSets(context.Background(), col, "alice@example.com", report.Topic, 10)
	require.Len(t, sets, 1)
	assert.Len(t, sets[0].Cards, 2)
	assert.Equal(t, "pipeline", sets[0].Source)
}

func TestRun_ProfilePromptCarriesDocuments(t *testing.T) {
	col := seededCollection(t, "alice", "first note", "second note")
	producer := &scripted{
		responses: []string{"topics", longResearch, cardsJSON(1)},
	}
	p := New(Config{}, producer, nil, nil)

	p.Run(context.Background(), col, "alice")

	require.Len(t, producer.prompts, 3)
	assert.Contains(t, producer.prompts[0], "first note")
	assert.Contains(t, producer.prompts[0], "second note")
	assert.Contains(t, producer.prompts[0], "\n\n---\n\n")
	assert.Contains(t, producer.prompts[1], "topics")
	assert.Contains(t, producer.prompts[2], longResearch[:40])
}

func TestRun_NoDocumentsShortCircuits(t *testing.T) {
	col := knowledge.NewMemCollection("alice", false)
	producer := &scripted{}
	p := New(Config{}, producer, nil, nil)

	report := p.Run(context.Background(), col, "alice")

	assert.Equal(t, RunAborted, report.Status)
	require.ErrorIs(t, report.Err, ErrNoDocuments)
	assert.Empty(t, producer.prompts, "no agent call may happen for an empty collection")

	statuses := map[Stage]StageStatus{}
	for _, s := range report.Stages {
		statuses[s.Stage] = s.Status
	}
	assert.Equal(t, StatusCompleted, statuses[StageInit])
	assert.Equal(t, StatusFailed, statuses[StageProfile])
	assert.Equal(t, StatusSkipped, statuses[StageResearch])
	assert.Equal(t, StatusSkipped, statuses[StageGeneration])
	assert.Equal(t, StatusSkipped, statuses[StageStorage])
}

func TestRun_NilProducerAborts(t *testing.T) {
	col := seededCollection(t, "alice", "a note")
	p := New(Config{}, nil, nil, nil)

	report := p.Run(context.Background(), col, "alice")

	assert.Equal(t, RunAborted, report.Status)
	assert.ErrorIs(t, report.Err, ErrNoProducer)
}

func TestRun_DegradedCollectionAborts(t *testing.T) {
	col := knowledge.NewMemCollection("alice", true)
	producer := &scripted{}
	p := New(Config{}, producer, nil, nil)

	report := p.Run(context.Background(), col, "alice")

	assert.Equal(t, RunAborted, report.Status)
	assert.ErrorIs(t, report.Err, ErrNoDocuments)
	assert.Empty(t, producer.prompts)
}

func TestRun_ResearchGate(t *testing.T) {
	col := seededCollection(t, "alice", "a note")
	producer := &scripted{
		responses: []string{"topics", "too short"},
	}
	p := New(Config{}, producer, nil, nil)

	report := p.Run(context.Background(), col, "alice")

	assert.Equal(t, RunAborted, report.Status)
	require.ErrorIs(t, report.Err, ErrInsufficientResearch)
	assert.Len(t, producer.prompts, 2, "generation must not run on gated research")
}

func TestRun_UnparseableGenerationAborts(t *testing.T) {
	col := seededCollection(t, "alice", "a note")
	producer := &scripted{
		responses: []string{"topics", longResearch, "Sorry, I cannot help with that."},
	}
	p := New(Config{}, producer, nil, nil)

	report := p.Run(context.Background(), col, "alice")

	assert.Equal(t, RunAborted, report.Status)
	assert.ErrorIs(t, report.Err, ErrNoCards)
	assert.Equal(t, 0, report.CardCount)
}

func TestRun_ProducerErrorAborts(t *testing.T) {
	col := seededCollection(t, "alice", "a note")
	producer := &scripted{
		responses: []string{"topics"},
		errs:      []error{nil, errors.New("rate limited")},
	}
	p := New(Config{}, producer, nil, nil)

	report := p.Run(context.Background(), col, "alice")

	assert.Equal(t, RunAborted, report.Status)
	assert.ErrorContains(t, report.Err, "rate limited")
}

// failingWrites accepts reads but fails every write, modelling a backend
// that went away between profile analysis and storage.
type failingWrites struct {
	*knowledge.MemCollection
}

func (f *failingWrites) Add(context.Context, knowledge.Document) error {
	return knowledge.ErrStoreFailed
}

func (f *failingWrites) AddBestEffort(context.Context, knowledge.Document) error {
	return knowledge.ErrStoreFailed
}

func TestRun_StorageFailureStillCompletes(t *testing.T) {
	col := &failingWrites{MemCollection: seededCollection(t, "alice", "a note")}
	producer := &scripted{
		responses: []string{"topics", longResearch, cardsJSON(3)},
	}
	p := New(Config{}, producer, nil, nil)

	report := p.Run(context.Background(), col, "alice")

	assert.Equal(t, RunDone, report.Status)
	assert.NoError(t, report.Err)
	assert.Equal(t, 3, report.CardCount)

	last := report.Stages[len(report.Stages)-1]
	assert.Equal(t, StageStorage, last.Stage)
	assert.Equal(t, StatusFailed, last.Status)
	assert.NotEmpty(t, last.Error)
}

func TestGenerateForTopic(t *testing.T) {
	col := knowledge.NewMemCollection("alice", false)
	research := strings.Repeat("Photosynthesis converts light. ", 3) // >50, <100 chars would fail batch gate
	producer := &scripted{
		responses: []string{research, cardsJSON(2)},
	}
	p := New(Config{}, producer, nil, nil)

	result, err := p.GenerateForTopic(context.Background(), col, "alice", "photosynthesis")

	require.NoError(t, err)
	assert.Len(t, result.Cards, 2)
	assert.True(t, result.Stored)
	assert.NoError(t, result.StoreErr)
	assert.Equal(t, strings.TrimSpace(research), result.Research)

	repo := flashcards.NewRepository(nil)
	sets := repo.RetrieveSets(context.Background(), col, "alice", "photosynthesis", 10)
	require.Len(t, sets, 1)
	assert.Equal(t, "on_demand", sets[0].Source)
}

func TestGenerateForTopic_EmptyTopic(t *testing.T) {
	producer := &scripted{}
	p := New(Config{}, producer, nil, nil)

	_, err := p.GenerateForTopic(context.Background(), knowledge.NewMemCollection("a", false), "a", "   ")

	require.ErrorIs(t, err, ErrEmptyTopic)
	assert.Empty(t, producer.prompts, "no agent call may happen for an empty topic")
}

func TestGenerateForTopic_ResearchGate(t *testing.T) {
	producer := &scripted{responses: []string{"short"}}
	p := New(Config{}, producer, nil, nil)

	_, err := p.GenerateForTopic(context.Background(), knowledge.NewMemCollection("a", false), "a", "t")

	assert.ErrorIs(t, err, ErrInsufficientResearch)
}

func TestGenerateForTopic_StorageFailureReported(t *testing.T) {
	col := &failingWrites{MemCollection: knowledge.NewMemCollection("alice", false)}
	producer := &scripted{
		responses: []string{longResearch, cardsJSON(1)},
	}
	p := New(Config{}, producer, nil, nil)

	result, err := p.GenerateForTopic(context.Background(), col, "alice", "cells")

	require.NoError(t, err, "storage is best-effort for on-demand generation too")
	assert.False(t, result.Stored)
	assert.ErrorIs(t, result.StoreErr, knowledge.ErrStoreFailed)
	assert.Len(t, result.Cards, 1)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, 50, cfg.MaxProfileDocs)
	assert.Equal(t, 10, cfg.MaxCards)
}

func TestRun_CardCapReachesPrompt(t *testing.T) {
	col := seededCollection(t, "alice", "a note")
	producer := &scripted{
		responses: []string{"topics", longResearch, cardsJSON(1)},
	}
	p := New(Config{}, producer, nil, nil)

	p.Run(context.Background(), col, "alice")

	require.Len(t, producer.prompts, 3)
	assert.Contains(t, producer.prompts[2], "up to 10 question-and-answer flashcards")
}
