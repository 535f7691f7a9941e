package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/httpapi"
	"github.com/vaibhavp4/kompow/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kompow HTTP server",
	Long: `Run the HTTP API for flashcard generation and retrieval.

When a pipeline schedule is configured, the batch pipeline also runs inside
this process on that schedule.

Examples:
  # Serve with defaults (localhost:8080)
  kompow serve

  # Serve with a config file
  kompow serve --config ./config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	server, err := httpapi.NewServer(a.pipeline, a.repo, a.store, a.logger, a.cfg.Server)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if spec := a.cfg.Pipeline.Schedule; spec != "" && len(a.cfg.Pipeline.Users) > 0 {
		runner := pipeline.NewRunner(a.pipeline, a.store, a.cfg.Pipeline.Users, a.logger)
		scheduler := pipeline.NewScheduler(a.logger)
		if err := scheduler.AddJob(runner, spec); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
