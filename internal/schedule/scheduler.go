// Package schedule fires the purchase job on a cron expression evaluated in a
// fixed IANA time zone.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	DefaultExpression = "31 1 * * *" // 01:31 every day
	DefaultTimeZone   = "Australia/Sydney"
)

// Trigger starts one run. It is called from the cron goroutine.
type Trigger func(ctx context.Context)

// Scheduler wraps a cron runner with a single entry.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	entry    cron.EntryID
	location *time.Location
	log      logrus.FieldLogger
}

// New parses a five-field cron expression in tz and binds trigger to it.
// Overlapping fires are skipped while the previous trigger is still running.
func New(ctx context.Context, expr, tz string, trigger Trigger, logger logrus.FieldLogger) (*Scheduler, error) {
	if trigger == nil {
		return nil, errors.New("schedule: trigger is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = DefaultExpression
	}
	if tz == "" {
		tz = DefaultTimeZone
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", tz, err)
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("CRON_TZ=%s %s", tz, expr))
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}

	log := logger.WithField("component", "scheduler")
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		),
	)
	id := c.Schedule(sched, cron.FuncJob(func() { trigger(ctx) }))

	return &Scheduler{
		cron:     c,
		schedule: sched,
		entry:    id,
		location: loc,
		log:      log,
	}, nil
}

// Next returns the first fire time strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// NextRun returns the next scheduled fire time, or zero if the scheduler is not started.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Location returns the schedule time zone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("next_run", s.Next(time.Now()).In(s.location).Format(time.RFC3339)).Info("scheduler started")
}

// Stop stops firing and waits for a running trigger to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}
