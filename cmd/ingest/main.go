// Package main admits drop-list CSV files into the seen ledger.
//
// Usage:
//
//	ingest [--config agent.yaml] drops-2026-10-14.csv [more.csv ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LuckyB33f/domainAgent/internal/app"
	"github.com/LuckyB33f/domainAgent/internal/config"
	"github.com/LuckyB33f/domainAgent/internal/droplist"
	"github.com/LuckyB33f/domainAgent/internal/ingestion"
	"github.com/LuckyB33f/domainAgent/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML, TOML or JSON)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one CSV file is required")
		flag.Usage()
		os.Exit(2)
	}

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
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Warn("storage.driver is memory: admitted names are lost on exit")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stores, closers, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	importer := ingestion.NewCSVImporter(droplist.NewCache(stores.Seen, logger), logger)

	failed := 0
	for _, path := range flag.Args() {
		res, err := importer.ImportFile(ctx, path)
		if err != nil {
			logger.WithField("file", path).WithError(err).Error("ingestion failed")
			failed++
			continue
		}
		fmt.Printf("%s: rows=%d skipped=%d admitted=%d\n", path, res.Rows, res.Skipped, len(res.Admitted))
	}

	if failed > 0 {
		cancel()
		os.Exit(1)
	}
}
