// Package main runs the long-lived agent: the daily purchase schedule plus the
// admin HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/agent"
	"github.com/LuckyB33f/domainAgent/internal/api"
	"github.com/LuckyB33f/domainAgent/internal/app"
	"github.com/LuckyB33f/domainAgent/internal/config"
	"github.com/LuckyB33f/domainAgent/internal/ingestion"
	"github.com/LuckyB33f/domainAgent/internal/logging"
	"github.com/LuckyB33f/domainAgent/internal/lookup"
	"github.com/LuckyB33f/domainAgent/internal/schedule"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML, TOML or JSON)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, cfg, logger); err != nil {
		logger.WithError(err).Fatal("agent stopped with error")
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *logrus.Logger) error {
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := schedule.New(ctx, cfg.Schedule.Cron, cfg.Schedule.Timezone, func(ctx context.Context) {
		// Job.Run logs the run outcome itself.
		if _, err := a.Job.Run(ctx, agent.TriggerSchedule); errors.Is(err, agent.ErrRunInProgress) {
			logger.Warn("scheduled run skipped: a run is already in progress")
		}
	}, logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	a.Job.SetNextRunFunc(sched.NextRun)

	server := api.New(api.Options{
		Job:          a.Job,
		Attempts:     a.Stores.Attempts,
		Seen:         a.Stores.Seen,
		Summaries:    a.Stores.Summaries,
		Availability: a.Registrar,
		Whois:        lookup.NewChecker(logger),
		Importer:     ingestion.NewCSVImporter(a.Cache, logger),
		BaseContext:  ctx,
		Logger:       logger,
	})

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Info("received signal, initiating graceful shutdown")
			cancel()
		case <-ctx.Done():
			return
		}

		// Second signal or a stuck shutdown forces exit
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Error("received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Error("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()
	defer close(done)

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- server.Start(cfg.HTTP.Addr)
	}()

	sched.Start()
	logger.WithFields(logrus.Fields{
		"cron":     cfg.Schedule.Cron,
		"timezone": cfg.Schedule.Timezone,
		"next_run": sched.NextRun().Format(time.RFC3339),
	}).Info("agent started")

	if cfg.Schedule.RunOnStart {
		if _, err := a.Job.Start(ctx, agent.TriggerStartup); err != nil {
			logger.WithError(err).Warn("startup run not started")
		}
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-httpErr:
		if serveErr != nil {
			serveErr = fmt.Errorf("admin API: %w", serveErr)
		}
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("scheduler did not stop cleanly")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("admin API did not stop cleanly")
	}
	// The orchestrator stops between items once ctx is cancelled.
	a.Job.Wait()

	return serveErr
}
