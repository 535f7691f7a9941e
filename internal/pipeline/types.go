// Package pipeline runs the content pipeline: analyze a user's stored
// documents for learning interests, research those interests, generate
// flashcards, and store the result back into the user's collection.
//
// A run is a linear pass through the stages; the first failing required
// stage aborts the run. Storage is best-effort: a storage failure is
// recorded but the run still completes. Failures are values carried in
// the Report, never panics; one user's failed run never affects another
// user's run in a batch.
package pipeline

import (
	"errors"
	"time"
)

// Stage identifies a pipeline stage.
type Stage string

const (
	// StageInit verifies the run's preconditions.
	StageInit Stage = "init"

	// StageProfile analyzes the user's documents for learning interests.
	StageProfile Stage = "profile_analysis"

	// StageResearch gathers educational content about the interests.
	StageResearch Stage = "research"

	// StageGeneration turns researched content into flashcards.
	StageGeneration Stage = "generation"

	// StageStorage persists the generated flashcard set.
	StageStorage Stage = "storage"
)

// AllStages returns the stages in execution order.
func AllStages() []Stage {
	return []Stage{StageInit, StageProfile, StageResearch, StageGeneration, StageStorage}
}

// StageStatus is the completion status of a stage within a run.
type StageStatus string

const (
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
	StatusSkipped   StageStatus = "skipped"
)

// StageResult captures the outcome of one stage.
type StageResult struct {
	Stage       Stage       `json:"stage"`
	Status      StageStatus `json:"status"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at,omitempty"`

	// Output is a short human-readable summary (document counts, text
	// lengths), not the full stage payload.
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	RunDone    RunStatus = "done"
	RunAborted RunStatus = "aborted"
)

// Report is the complete record of one pipeline run for one user.
type Report struct {
	RunID       string        `json:"run_id"`
	UserID      string        `json:"user_id"`
	Status      RunStatus     `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Stages      []StageResult `json:"stages"`

	// CardCount is the number of flashcards generated, when the run got
	// that far.
	CardCount int `json:"card_count,omitempty"`

	// Topic is the label the generated set was stored under.
	Topic string `json:"topic,omitempty"`

	// Err is the failure that aborted the run, nil for a Done run even
	// when storage failed.
	Err error `json:"-"`
}

// Sentinel failures for the content gates. Each names the stage
// precondition that was not met.
var (
	// ErrNoProducer indicates the agent capability is not configured.
	ErrNoProducer = errors.New("no text producer configured")

	// ErrNoDocuments indicates the user has no stored documents to
	// analyze, or all stored documents were empty.
	ErrNoDocuments = errors.New("no documents available for profile analysis")

	// ErrEmptyProfile indicates profile analysis produced no interests.
	ErrEmptyProfile = errors.New("profile analysis produced no interests")

	// ErrInsufficientResearch indicates the researched content was too
	// short to generate meaningful flashcards from.
	ErrInsufficientResearch = errors.New("researched content too short")

	// ErrNoCards indicates generation produced no parseable flashcards.
	ErrNoCards = errors.New("generation produced no flashcards")

	// ErrEmptyTopic indicates an on-demand request with no usable topic.
	ErrEmptyTopic = errors.New("no topic provided")
)
