package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vaibhavp4/kompow/internal/pipeline"
)

var pipelineCron bool

var pipelineCmd = &cobra.Command{
	Use:   "pipeline [user...]",
	Short: "Run the content pipeline for configured users",
	Long: `Run the full content pipeline: profile analysis, research, flashcard
generation, and storage.

Users come from the pipeline.users config list, or from arguments which
override the list. By default the batch runs once and prints a report per
user; with --cron it runs on the configured schedule until interrupted.

Examples:
  # One batch over configured users
  kompow pipeline

  # One run for a single user
  kompow pipeline alice@example.com

  # Run on the configured cron schedule
  kompow pipeline --cron`,
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().BoolVar(&pipelineCron, "cron", false, "run on the configured schedule instead of once")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	users := a.cfg.Pipeline.Users
	if len(args) > 0 {
		users = args
	}
	if len(users) == 0 {
		return fmt.Errorf("no users: set pipeline.users in config or pass user IDs as arguments")
	}

	runner := pipeline.NewRunner(a.pipeline, a.store, users, a.logger)

	if pipelineCron {
		spec := a.cfg.Pipeline.Schedule
		if spec == "" {
			return fmt.Errorf("no schedule: set pipeline.schedule in config")
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		scheduler := pipeline.NewScheduler(a.logger)
		if err := scheduler.AddJob(runner, spec); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()

		<-ctx.Done()
		return nil
	}

	reports := runner.RunAll(cmd.Context())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for _, report := range reports {
		if err := enc.Encode(report); err != nil {
			return err
		}
		if report.Status == pipeline.RunAborted {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs aborted", failed, len(reports))
	}
	return nil
}
