package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/observability"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// RunSummaryStore implements storage.RunSummaryStore using ClickHouse.
type RunSummaryStore struct {
	conn *Conn
}

// NewRunSummaryStore creates a new RunSummaryStore.
func NewRunSummaryStore(conn *Conn) *RunSummaryStore {
	return &RunSummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)

const runSummaryColumns = `run_id, trigger, status, fetched, admitted, selected, succeeded, failed, error, started_at, finished_at, duration_ms`

// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
// MergeTree does not enforce keys, so uniqueness is checked before the insert.
func (s *RunSummaryStore) Insert(ctx context.Context, r *domain.RunSummary) (err error) {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "run_summary_insert", time.Since(start).Seconds(), err)
	}(time.Now())

	var count uint64
	if err = s.conn.QueryRow(ctx, `SELECT count() FROM run_summaries WHERE run_id = ?`, r.RunID).Scan(&count); err != nil {
		return fmt.Errorf("check run summary: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `INSERT INTO run_summaries (`+runSummaryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.Trigger,
		string(r.Status),
		uint32(r.Fetched),
		uint32(r.Admitted),
		uint32(r.Selected),
		uint32(r.Succeeded),
		uint32(r.Failed),
		r.Error,
		r.StartedAt.UTC(),
		r.FinishedAt.UTC(),
		r.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// GetByRunID retrieves a summary. Returns ErrNotFound if not exists.
func (s *RunSummaryStore) GetByRunID(ctx context.Context, runID string) (_ *domain.RunSummary, err error) {
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "run_summary_get", time.Since(start).Seconds(), err)
	}(time.Now())

	rows, err := s.conn.Query(ctx, `SELECT `+runSummaryColumns+` FROM run_summaries WHERE run_id = ? LIMIT 1`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run summary: %w", err)
	}
	summaries, err := scanRunSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, storage.ErrNotFound
	}
	return summaries[0], nil
}

// ListRecent retrieves the latest summaries, newest first. limit <= 0 means no limit.
func (s *RunSummaryStore) ListRecent(ctx context.Context, limit int) (_ []*domain.RunSummary, err error) {
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "run_summary_list", time.Since(start).Seconds(), err)
	}(time.Now())

	query := `SELECT ` + runSummaryColumns + ` FROM run_summaries ORDER BY started_at DESC, run_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query recent run summaries: %w", err)
	}
	return scanRunSummaries(rows)
}

// chRows is the subset of driver.Rows used for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

func scanRunSummaries(rows chRows) ([]*domain.RunSummary, error) {
	defer rows.Close()

	var result []*domain.RunSummary
	for rows.Next() {
		var (
			r                                              domain.RunSummary
			status                                         string
			fetched, admitted, selected, succeeded, failed uint32
		)
		if err := rows.Scan(
			&r.RunID,
			&r.Trigger,
			&status,
			&fetched,
			&admitted,
			&selected,
			&succeeded,
			&failed,
			&r.Error,
			&r.StartedAt,
			&r.FinishedAt,
			&r.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("scan run summary row: %w", err)
		}
		r.Status = domain.RunStatus(status)
		r.Fetched = int(fetched)
		r.Admitted = int(admitted)
		r.Selected = int(selected)
		r.Succeeded = int(succeeded)
		r.Failed = int(failed)
		r.StartedAt = r.StartedAt.UTC()
		r.FinishedAt = r.FinishedAt.UTC()
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summary rows: %w", err)
	}
	return result, nil
}
