// Package app wires configuration into stores, gateways and the purchase job.
// Every binary under cmd/ builds its components through Build.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/agent"
	"github.com/LuckyB33f/domainAgent/internal/config"
	"github.com/LuckyB33f/domainAgent/internal/droplist"
	"github.com/LuckyB33f/domainAgent/internal/orchestrator"
	"github.com/LuckyB33f/domainAgent/internal/registrar"
	"github.com/LuckyB33f/domainAgent/internal/registrar/stub"
	"github.com/LuckyB33f/domainAgent/internal/selection"
	"github.com/LuckyB33f/domainAgent/internal/storage"
	chstore "github.com/LuckyB33f/domainAgent/internal/storage/clickhouse"
	"github.com/LuckyB33f/domainAgent/internal/storage/memory"
	"github.com/LuckyB33f/domainAgent/internal/storage/migrations"
	pgstore "github.com/LuckyB33f/domainAgent/internal/storage/postgres"
	"github.com/LuckyB33f/domainAgent/internal/storage/sqlite"
)

// Stores holds the storage implementations selected by storage.driver.
type Stores struct {
	Seen      storage.SeenDomainStore
	Attempts  storage.PurchaseAttemptStore
	Summaries storage.RunSummaryStore
}

// App holds the wired components.
type App struct {
	Config       *config.Config
	Stores       *Stores
	Registrar    *registrar.Client
	Orders       orchestrator.OrderGateway
	Cache        *droplist.Cache
	Orchestrator *orchestrator.Orchestrator
	Job          *agent.Job

	closers []func()
}

// Build connects storage, runs migrations and assembles the purchase job.
func Build(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	stores, closers, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Stores: stores, closers: closers}

	client, err := registrar.NewClient(cfg.Registrar.BaseURL, cfg.Credentials(),
		append(cfg.RegistrarOptions(), registrar.WithLogger(log))...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create registrar client: %w", err)
	}
	a.Registrar = client
	a.Orders = client

	if cfg.Registrar.DryRun {
		// The drop list still comes from the registrar; orders never leave the process.
		dry := stub.NewGateway()
		dry.OrderPrefix = "DRYRUN"
		a.Orders = dry
		log.Warn("registrar.dry_run is set: orders are simulated")
	}

	a.Cache = droplist.NewCache(stores.Seen, log)
	a.Orchestrator = orchestrator.New(orchestrator.Options{
		DropList: client,
		Orders:   a.Orders,
		Attempts: stores.Attempts,
		Cache:    a.Cache,
		Selector: selection.New(cfg.SelectionRules()),
		Defaults: cfg.OrderDefaults(),
		Logger:   log,
	})
	a.Job = agent.NewJob(a.Orchestrator, stores.Summaries, log)

	return a, nil
}

// Close releases storage connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenStores opens the stores for storage.driver. Run summaries go to ClickHouse
// when storage.clickhouse_dsn is set, otherwise to the primary driver.
func OpenStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Stores, []func(), error) {
	var (
		stores  = &Stores{}
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		stores.Seen = memory.NewSeenDomainStore()
		stores.Attempts = memory.NewPurchaseAttemptStore()
		stores.Summaries = memory.NewRunSummaryStore()

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.Seen = pgstore.NewSeenDomainStore(pool)
		stores.Attempts = pgstore.NewPurchaseAttemptStore(pool)
		// Postgres has no run summary table; summaries need ClickHouse to persist.
		stores.Summaries = memory.NewRunSummaryStore()

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		stores.Seen = sqlite.NewSeenDomainStore(db)
		stores.Attempts = sqlite.NewPurchaseAttemptStore(db)
		stores.Summaries = sqlite.NewRunSummaryStore(db)

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.Summaries = chstore.NewRunSummaryStore(conn)
	}

	log.WithFields(logrus.Fields{
		"driver":     cfg.Storage.Driver,
		"clickhouse": cfg.Storage.ClickhouseDSN != "",
	}).Info("storage ready")
	return stores, closers, nil
}

// ErrNoCredentials is returned by RequireRegistrar when API calls cannot authenticate.
var ErrNoCredentials = errors.New("registrar credentials are not configured")

// RequireRegistrar fails fast when a command needs live registrar calls without credentials.
func RequireRegistrar(cfg *config.Config) error {
	c := cfg.Credentials()
	if c.APIKey == "" || c.APISecret == "" || c.ResellerID == "" {
		return ErrNoCredentials
	}
	return nil
}
