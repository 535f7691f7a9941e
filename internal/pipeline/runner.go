package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/knowledge"
)

// CollectionOpener resolves a user ID to that user's collection.
// *knowledge.Store satisfies it.
type CollectionOpener interface {
	Open(userID string) (knowledge.Collection, error)
}

// Runner executes pipeline runs for a fixed set of users, sequentially.
// Failures are isolated per user: an aborted run or an unopenable
// collection never stops the batch.
type Runner struct {
	pipeline *Pipeline
	opener   CollectionOpener
	users    []string
	logger   *zap.Logger
}

// NewRunner creates a batch runner over the given users.
func NewRunner(p *Pipeline, opener CollectionOpener, users []string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		pipeline: p,
		opener:   opener,
		users:    users,
		logger:   logger,
	}
}

// RunAll runs the pipeline for every configured user and returns one
// Report per user, in input order.
func (r *Runner) RunAll(ctx context.Context) []*Report {
	reports := make([]*Report, 0, len(r.users))
	for _, userID := range r.users {
		if ctx.Err() != nil {
			r.logger.Warn("batch cancelled", zap.Error(ctx.Err()),
				zap.Int("completed", len(reports)), zap.Int("total", len(r.users)))
			break
		}
		reports = append(reports, r.runUser(ctx, userID))
	}
	return reports
}

func (r *Runner) runUser(ctx context.Context, userID string) *Report {
	col, err := r.opener.Open(userID)
	if err != nil {
		r.logger.Warn("skipping user, collection unavailable",
			zap.String("user_id", userID), zap.Error(err))
		return r.failedOpenReport(userID, err)
	}
	return r.pipeline.Run(ctx, col, userID)
}

// failedOpenReport synthesizes an aborted report for a user whose
// collection could not be opened, keeping batch output uniform.
func (r *Runner) failedOpenReport(userID string, err error) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		UserID:    userID,
		StartedAt: timeNow().UTC(),
	}
	wrapped := fmt.Errorf("opening collection: %w", err)
	_ = r.pipeline.runStage(report, StageInit, func() (string, error) {
		return "", wrapped
	})
	r.pipeline.abort(report, wrapped)
	report.CompletedAt = timeNow().UTC()
	RunsTotal.WithLabelValues(string(RunAborted)).Inc()
	return report
}

// Name implements Job.
func (r *Runner) Name() string { return "flashcard_pipeline" }

// Run implements Job: one full batch pass. Aborted runs are reported as an
// error so the scheduler logs the failure, but each user was still
// attempted.
func (r *Runner) Run(ctx context.Context) error {
	reports := r.RunAll(ctx)
	aborted := 0
	for _, rep := range reports {
		if rep.Status == RunAborted {
			aborted++
		}
	}
	if aborted > 0 {
		return fmt.Errorf("%d of %d pipeline runs aborted", aborted, len(reports))
	}
	return nil
}
