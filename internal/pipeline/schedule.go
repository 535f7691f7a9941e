package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules. An invocation that would overlap
// a still-running one is skipped, so a slow batch never stacks up.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	logger  *zap.Logger
	ctx     context.Context
}

// NewScheduler creates a scheduler using standard five-field cron specs.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
		logger:  logger,
	}
}

// AddJob schedules job on the given cron spec.
func (s *Scheduler) AddJob(job Job, spec string) error {
	logger := s.logger.With(zap.String("job", job.Name()), zap.String("spec", spec))
	entryID, err := s.cron.AddFunc(spec, s.wrap(job, logger))
	if err != nil {
		logger.Error("scheduling job failed", zap.Error(err))
		return err
	}
	s.entries[job.Name()] = entryID
	logger.Info("job scheduled")
	return nil
}

// Start begins executing scheduled jobs. ctx is passed to every job run.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) wrap(job Job, logger *zap.Logger) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			logger.Info("job skipped: previous run still in progress")
			return
		}
		defer running.Store(false)

		ctx := s.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()
		logger.Info("job started")
		err := job.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("job finished with error", zap.Error(err), zap.Duration("duration", elapsed))
			return
		}
		logger.Info("job finished", zap.Duration("duration", elapsed))
	}
}
