// Package main prints a purchase report for a time window as Markdown or CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/app"
	"github.com/LuckyB33f/domainAgent/internal/config"
	"github.com/LuckyB33f/domainAgent/internal/logging"
	"github.com/LuckyB33f/domainAgent/internal/reporting"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML, TOML or JSON)")
	since := flag.Duration("since", 7*24*time.Hour, "Report window length ending now")
	from := flag.String("from", "", "Window start (RFC3339 or 2006-01-02), overrides --since")
	to := flag.String("to", "", "Window end (RFC3339 or 2006-01-02), default now")
	format := flag.String("format", "markdown", "Output format: markdown or csv")
	output := flag.String("output", "", "Write to file instead of stdout")
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

	end := time.Now().UTC()
	if *to != "" {
		if end, err = parseTime(*to); err != nil {
			logger.WithError(err).Fatal("invalid --to")
		}
	}
	start := end.Add(-*since)
	if *from != "" {
		if start, err = parseTime(*from); err != nil {
			logger.WithError(err).Fatal("invalid --from")
		}
	}

	ctx := context.Background()
	stores, closers, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var out string
	switch *format {
	case "markdown", "md":
		report, err := reporting.NewGenerator(stores.Attempts, stores.Seen, stores.Summaries).Generate(ctx, start, end)
		if err != nil {
			logger.WithError(err).Fatal("generate report")
		}
		out = reporting.RenderMarkdown(report)
	case "csv":
		attempts, err := stores.Attempts.ListByTimeRange(ctx, start, end)
		if err != nil {
			logger.WithError(err).Fatal("list attempts")
		}
		out = reporting.RenderAttemptsCSV(attempts)
	default:
		logger.WithField("format", *format).Fatal("unknown format, want markdown or csv")
	}

	if *output == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(*output, []byte(out), 0o644); err != nil {
		logger.WithError(err).Fatal("write report")
	}
	logger.WithField("file", *output).Info("report written")
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: want RFC3339 or 2006-01-02", v)
	}
	return t, nil
}
