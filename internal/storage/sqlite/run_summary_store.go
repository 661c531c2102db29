package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// RunSummaryStore implements storage.RunSummaryStore using SQLite.
type RunSummaryStore struct {
	db *DB
}

// NewRunSummaryStore creates a new RunSummaryStore.
func NewRunSummaryStore(db *DB) *RunSummaryStore {
	return &RunSummaryStore{db: db}
}

var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
func (s *RunSummaryStore) Insert(ctx context.Context, r *domain.RunSummary) (err error) {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("run_summary_insert", start, err) }(time.Now())

	var count int64
	if err = s.db.WithContext(ctx).Model(&runSummaryRow{}).Where("run_id = ?", r.RunID).Count(&count).Error; err != nil {
		return fmt.Errorf("check run summary: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	row := runSummaryRow{
		RunID:      r.RunID,
		Trigger:    r.Trigger,
		Status:     string(r.Status),
		Fetched:    r.Fetched,
		Admitted:   r.Admitted,
		Selected:   r.Selected,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Error:      r.Error,
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		DurationMs: r.DurationMs,
	}
	if err = s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// GetByRunID retrieves a summary. Returns ErrNotFound if not exists.
func (s *RunSummaryStore) GetByRunID(ctx context.Context, runID string) (_ *domain.RunSummary, err error) {
	defer func(start time.Time) { observe("run_summary_get", start, err) }(time.Now())

	var row runSummaryRow
	if err = s.db.WithContext(ctx).Where("run_id = ?", runID).Take(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run summary: %w", err)
	}
	return row.toDomain(), nil
}

// ListRecent retrieves the latest summaries, newest first. limit <= 0 means no limit.
func (s *RunSummaryStore) ListRecent(ctx context.Context, limit int) (_ []*domain.RunSummary, err error) {
	defer func(start time.Time) { observe("run_summary_list", start, err) }(time.Now())

	q := s.db.WithContext(ctx).Order("started_at DESC, run_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []runSummaryRow
	if err = q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list run summaries: %w", err)
	}

	result := make([]*domain.RunSummary, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}
