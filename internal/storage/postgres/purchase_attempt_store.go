package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// PurchaseAttemptStore implements storage.PurchaseAttemptStore using PostgreSQL.
type PurchaseAttemptStore struct {
	pool *Pool
}

// NewPurchaseAttemptStore creates a new PurchaseAttemptStore.
func NewPurchaseAttemptStore(pool *Pool) *PurchaseAttemptStore {
	return &PurchaseAttemptStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PurchaseAttemptStore = (*PurchaseAttemptStore)(nil)

const attemptColumns = `id, domain_name, tld, order_id, status, error_message, attempted_at, created_at, updated_at`

// Insert adds a Pending attempt and returns the generated id.
func (s *PurchaseAttemptStore) Insert(ctx context.Context, a *domain.PurchaseAttempt) (id int64, err error) {
	if a == nil || a.DomainName == "" || a.Status != domain.PurchaseStatusPending {
		return 0, storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("attempt_insert", start, err) }(time.Now())

	attemptedAt := a.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = time.Now().UTC()
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO purchase_attempts (domain_name, tld, status, attempted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, a.DomainName, a.TLD, string(a.Status), attemptedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert purchase attempt: %w", err)
	}
	return id, nil
}

// Complete moves a Pending attempt to Success or Failed.
// The status guard in the UPDATE makes the transition happen at most once.
func (s *PurchaseAttemptStore) Complete(ctx context.Context, id int64, status domain.PurchaseStatus, orderID, errorMessage *string) (err error) {
	if !status.IsTerminal() {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("attempt_complete", start, err) }(time.Now())

	tag, err := s.pool.Exec(ctx, `
		UPDATE purchase_attempts
		SET status = $2, order_id = $3, error_message = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`, id, string(status), orderID, errorMessage, string(domain.PurchaseStatusPending))
	if err != nil {
		return fmt.Errorf("complete purchase attempt: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM purchase_attempts WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check purchase attempt: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrAttemptFinalized
}

// GetByID retrieves an attempt. Returns ErrNotFound if not exists.
func (s *PurchaseAttemptStore) GetByID(ctx context.Context, id int64) (_ *domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_get", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM purchase_attempts WHERE id = $1`, id)
	a, err := scanAttempt(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get purchase attempt: %w", err)
	}
	return a, nil
}

// GetLatestByDomain retrieves the most recent attempt for a domain.
func (s *PurchaseAttemptStore) GetLatestByDomain(ctx context.Context, domainName string) (_ *domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_latest", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx, `
		SELECT `+attemptColumns+`
		FROM purchase_attempts
		WHERE domain_name = $1
		ORDER BY attempted_at DESC, id DESC
		LIMIT 1
	`, domainName)
	a, err := scanAttempt(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest purchase attempt: %w", err)
	}
	return a, nil
}

// ListByStatus retrieves attempts with the given status, newest first.
func (s *PurchaseAttemptStore) ListByStatus(ctx context.Context, status domain.PurchaseStatus) (_ []*domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_list_by_status", start, err) }(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT `+attemptColumns+`
		FROM purchase_attempts
		WHERE status = $1
		ORDER BY attempted_at DESC, id DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list purchase attempts by status: %w", err)
	}
	return scanAttempts(rows)
}

// ListByTimeRange retrieves attempts with attempted_at in [start, end], newest first.
func (s *PurchaseAttemptStore) ListByTimeRange(ctx context.Context, start, end time.Time) (_ []*domain.PurchaseAttempt, err error) {
	defer func(began time.Time) { observe("attempt_list_by_time_range", began, err) }(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT `+attemptColumns+`
		FROM purchase_attempts
		WHERE attempted_at >= $1 AND attempted_at <= $2
		ORDER BY attempted_at DESC, id DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list purchase attempts by time range: %w", err)
	}
	return scanAttempts(rows)
}

// List retrieves the most recent attempts. limit <= 0 means no limit.
func (s *PurchaseAttemptStore) List(ctx context.Context, limit int) (_ []*domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_list", start, err) }(time.Now())

	query := `SELECT ` + attemptColumns + ` FROM purchase_attempts ORDER BY attempted_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase attempts: %w", err)
	}
	return scanAttempts(rows)
}

func scanAttempt(row pgx.Row) (*domain.PurchaseAttempt, error) {
	var a domain.PurchaseAttempt
	var status string
	err := row.Scan(
		&a.ID,
		&a.DomainName,
		&a.TLD,
		&a.OrderID,
		&status,
		&a.ErrorMessage,
		&a.AttemptedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.PurchaseStatus(status)
	a.AttemptedAt = a.AttemptedAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

// scanAttempts drains and closes rows.
func scanAttempts(rows pgx.Rows) ([]*domain.PurchaseAttempt, error) {
	defer rows.Close()

	var result []*domain.PurchaseAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase attempt row: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase attempt rows: %w", err)
	}
	return result, nil
}
