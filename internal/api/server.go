// Package api exposes the admin and status HTTP surface of the agent.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/agent"
	"github.com/LuckyB33f/domainAgent/internal/ingestion"
	"github.com/LuckyB33f/domainAgent/internal/lookup"
	"github.com/LuckyB33f/domainAgent/internal/observability"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// JobController starts runs and reports their state.
type JobController interface {
	Start(ctx context.Context, trigger string) (string, error)
	Status() agent.Status
}

// AvailabilityChecker asks the registrar whether a name can be registered.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, domainName string) (bool, error)
}

// WhoisChecker runs a WHOIS diagnostic.
type WhoisChecker interface {
	Check(ctx context.Context, name string) (*lookup.Result, error)
}

// Importer admits a CSV drop list.
type Importer interface {
	Import(ctx context.Context, r io.Reader) (*ingestion.Result, error)
}

// Options for creating Server.
type Options struct {
	// Required
	Job      JobController
	Attempts storage.PurchaseAttemptStore
	Seen     storage.SeenDomainStore

	// Optional; the matching routes answer 501 when nil
	Summaries    storage.RunSummaryStore
	Availability AvailabilityChecker
	Whois        WhoisChecker
	Importer     Importer

	// BaseContext outlives requests; manual runs are started with it.
	BaseContext context.Context
	Logger      logrus.FieldLogger
}

// Server is the admin HTTP server.
type Server struct {
	echo    *echo.Echo
	opts    Options
	log     logrus.FieldLogger
	started time.Time
}

// New creates a server with all routes registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		opts:    opts,
		log:     opts.Logger.WithField("component", "api"),
		started: time.Now().UTC(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("http request failed")
				return nil
			}
			entry.Debug("http request")
			return nil
		},
	}))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echo.WrapHandler(observability.Handler()))
	s.echo.GET("/status", s.status)

	api := s.echo.Group("/api")
	api.POST("/runs", s.triggerRun)
	api.GET("/runs", s.listRuns)
	api.GET("/attempts", s.listAttempts)
	api.GET("/attempts.csv", s.attemptsCSV)
	api.GET("/domains/:name", s.getDomain)
	api.GET("/domains/:name/availability", s.availability)
	api.GET("/domains/:name/whois", s.whois)
	api.POST("/droplist/import", s.importDropList)
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown. Returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("admin API listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
