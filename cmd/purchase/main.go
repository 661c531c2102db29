// Package main executes one purchase run immediately and exits.
// The exit status is non-zero when the run failed as a whole.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/LuckyB33f/domainAgent/internal/agent"
	"github.com/LuckyB33f/domainAgent/internal/app"
	"github.com/LuckyB33f/domainAgent/internal/config"
	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML, TOML or JSON)")
	dryRun := flag.Bool("dry-run", false, "Simulate orders instead of submitting them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.Registrar.DryRun = true
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	// The drop list is always fetched live, dry run or not.
	if err := app.RequireRegistrar(cfg); err != nil {
		logger.WithError(err).Fatal("cannot fetch the drop list")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	defer a.Close()

	summary, err := a.Job.Run(ctx, agent.TriggerCLI)
	if err != nil {
		a.Close()
		os.Exit(1)
	}

	fmt.Printf("run %s %s: fetched=%d admitted=%d selected=%d succeeded=%d failed=%d\n",
		summary.RunID, summary.Status, summary.Fetched, summary.Admitted,
		summary.Selected, summary.Succeeded, summary.Failed)

	if summary.Status == domain.RunStatusCancelled {
		a.Close()
		os.Exit(130)
	}
}
