package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// maxRuns bounds the run summaries scanned for one report.
const maxRuns = 500

// Generator produces reports from stored data.
type Generator struct {
	attempts  storage.PurchaseAttemptStore
	seen      storage.SeenDomainStore
	summaries storage.RunSummaryStore // optional
	now       func() time.Time        // Injectable clock for deterministic output
}

// NewGenerator creates a report generator. summaries may be nil.
func NewGenerator(attempts storage.PurchaseAttemptStore, seen storage.SeenDomainStore, summaries storage.RunSummaryStore) *Generator {
	return &Generator{
		attempts:  attempts,
		seen:      seen,
		summaries: summaries,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate reports on attempts made in [start, end].
func (g *Generator) Generate(ctx context.Context, start, end time.Time) (*Report, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("report window end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	attempts, err := g.attempts.ListByTimeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	seenCount, err := g.seen.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count seen domains: %w", err)
	}

	r := &Report{
		GeneratedAt: g.now(),
		WindowStart: start.UTC(),
		WindowEnd:   end.UTC(),
		SeenDomains: seenCount,
	}

	for _, a := range attempts {
		row := toAttemptRow(a)
		r.Totals.Total++
		switch a.Status {
		case domain.PurchaseStatusSuccess:
			r.Totals.Success++
			r.Purchases = append(r.Purchases, row)
		case domain.PurchaseStatusFailed:
			r.Totals.Failed++
			r.Failures = append(r.Failures, row)
		default:
			r.Totals.Pending++
			r.Pending = append(r.Pending, row)
		}
	}

	if g.summaries != nil {
		runs, err := g.summaries.ListRecent(ctx, maxRuns)
		if err != nil {
			return nil, fmt.Errorf("load run summaries: %w", err)
		}
		for _, s := range runs {
			if s.StartedAt.Before(start) || s.StartedAt.After(end) {
				continue
			}
			r.Runs = append(r.Runs, RunRow{
				RunID:      s.RunID,
				Trigger:    s.Trigger,
				Status:     string(s.Status),
				Selected:   s.Selected,
				Succeeded:  s.Succeeded,
				Failed:     s.Failed,
				Error:      s.Error,
				StartedAt:  s.StartedAt,
				DurationMs: s.DurationMs,
			})
		}
	}

	return r, nil
}

func toAttemptRow(a *domain.PurchaseAttempt) AttemptRow {
	row := AttemptRow{
		ID:          a.ID,
		DomainName:  a.DomainName,
		TLD:         a.TLD,
		Status:      string(a.Status),
		AttemptedAt: a.AttemptedAt,
	}
	if a.OrderID != nil {
		row.OrderID = *a.OrderID
	}
	if a.ErrorMessage != nil {
		row.ErrorMessage = *a.ErrorMessage
	}
	return row
}
