// Package agent wraps a purchase run with the operational concerns around it:
// run identity, single-run guard, metrics and run summaries.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/observability"
	"github.com/LuckyB33f/domainAgent/internal/orchestrator"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// Triggers recorded on run summaries.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
	TriggerCLI      = "cli"
)

// ErrRunInProgress is returned when a run is requested while another is executing.
var ErrRunInProgress = errors.New("purchase run already in progress")

// ErrRunPanicked wraps a panic raised while executing a run.
var ErrRunPanicked = errors.New("purchase run panicked")

// Runner executes one purchase run.
type Runner interface {
	Execute(ctx context.Context) (*orchestrator.RunResult, error)
}

// Job runs purchases one at a time.
type Job struct {
	runner    Runner
	summaries storage.RunSummaryStore
	log       logrus.FieldLogger
	now       func() time.Time
	newID     func() string

	mu        sync.Mutex
	running   bool
	currentID string
	last      *domain.RunSummary
	nextRun   func() time.Time
	wg        sync.WaitGroup
}

// NewJob creates a purchase job. summaries may be nil.
func NewJob(runner Runner, summaries storage.RunSummaryStore, logger logrus.FieldLogger) *Job {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Job{
		runner:    runner,
		summaries: summaries,
		log:       logger.WithField("component", "job"),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// WithClock sets a custom clock for run timestamps.
func (j *Job) WithClock(now func() time.Time) *Job {
	j.now = now
	return j
}

// SetNextRunFunc installs the source of the next scheduled fire time.
func (j *Job) SetNextRunFunc(next func() time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextRun = next
}

// Run executes one purchase run and blocks until it finishes.
// The returned error is the whole-run fault, if any.
func (j *Job) Run(ctx context.Context, trigger string) (*domain.RunSummary, error) {
	runID, err := j.begin()
	if err != nil {
		return nil, err
	}
	return j.execute(ctx, runID, trigger)
}

// Start begins a run in the background and returns its ID.
// Returns ErrRunInProgress if a run is already executing.
func (j *Job) Start(ctx context.Context, trigger string) (string, error) {
	runID, err := j.begin()
	if err != nil {
		return "", err
	}
	go func() {
		_, _ = j.execute(ctx, runID, trigger)
	}()
	return runID, nil
}

// Wait blocks until the in-flight run, if any, has finished.
func (j *Job) Wait() {
	j.wg.Wait()
}

func (j *Job) begin() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return "", ErrRunInProgress
	}
	j.running = true
	j.currentID = j.newID()
	j.wg.Add(1)
	observability.SetRunInProgress(true)
	return j.currentID, nil
}

// runSafely executes the runner, turning a panic into a whole-run fault.
func (j *Job) runSafely(ctx context.Context) (result *orchestrator.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrRunPanicked, r)
		}
	}()
	return j.runner.Execute(ctx)
}

func (j *Job) finish(summary *domain.RunSummary) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.running = false
	j.currentID = ""
	if summary != nil {
		j.last = summary
	}
	observability.SetRunInProgress(false)
	j.wg.Done()
}

func (j *Job) execute(ctx context.Context, runID, trigger string) (summary *domain.RunSummary, err error) {
	// Release the guard however the run ends.
	defer func() { j.finish(summary) }()

	entry := j.log.WithFields(logrus.Fields{"run_id": runID, "trigger": trigger})
	start := j.now()
	entry.Info("starting domain purchase run")

	result, runErr := j.runSafely(ctx)
	if result == nil {
		result = &orchestrator.RunResult{}
	}
	finished := j.now()

	summary = &domain.RunSummary{
		RunID:      runID,
		Trigger:    trigger,
		Status:     domain.RunStatusCompleted,
		Fetched:    result.Fetched,
		Admitted:   result.Admitted,
		Selected:   result.Selected,
		Succeeded:  result.Succeeded(),
		Failed:     result.Failed(),
		StartedAt:  start,
		FinishedAt: finished,
		DurationMs: finished.Sub(start).Milliseconds(),
	}
	switch {
	case runErr != nil:
		summary.Status = domain.RunStatusFailed
		summary.Error = runErr.Error()
	case result.Cancelled:
		summary.Status = domain.RunStatusCancelled
	}
	for _, o := range result.Outcomes {
		observability.RecordOrder(o.Success)
		if o.Success {
			entry.WithFields(logrus.Fields{"domain": o.DomainName, "order_id": deref(o.OrderID)}).Info("purchased domain")
		} else {
			entry.WithFields(logrus.Fields{"domain": o.DomainName, "error": deref(o.ErrorMessage)}).Warn("failed to purchase domain")
		}
	}
	observability.RecordCandidates(result.Fetched, result.Admitted, result.Selected)
	observability.RecordRun(trigger, string(summary.Status), finished.Sub(start).Seconds())
	if summary.Status == domain.RunStatusCompleted {
		observability.SetLastSuccessfulRun(finished.Unix())
	}

	fields := logrus.Fields{
		"status":    summary.Status,
		"fetched":   summary.Fetched,
		"selected":  summary.Selected,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  finished.Sub(start).String(),
	}
	if runErr != nil {
		entry.WithFields(fields).WithError(runErr).Error("domain purchase run failed")
	} else {
		entry.WithFields(fields).Info("domain purchase run finished")
	}

	if j.summaries != nil {
		if err := j.summaries.Insert(context.WithoutCancel(ctx), summary); err != nil {
			entry.WithError(err).Error("record run summary failed")
		}
	}

	return summary, runErr
}

// Status describes the job for the admin API.
type Status struct {
	Running      bool               `json:"running"`
	CurrentRunID string             `json:"current_run_id,omitempty"`
	LastRun      *domain.RunSummary `json:"last_run,omitempty"`
	NextRun      *time.Time         `json:"next_run,omitempty"`
}

// Status returns a snapshot of the job state.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Status{
		Running:      j.running,
		CurrentRunID: j.currentID,
	}
	if j.last != nil {
		last := *j.last
		s.LastRun = &last
	}
	if j.nextRun != nil {
		if next := j.nextRun(); !next.IsZero() {
			s.NextRun = &next
		}
	}
	return s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
