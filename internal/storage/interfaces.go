package storage

import (
	"context"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

// SeenDomainStore provides access to the seen_domains dedup ledger.
// Rows are insert-only; there is no update or delete.
type SeenDomainStore interface {
	// Exists reports whether a domain name has ever been admitted.
	Exists(ctx context.Context, domainName string) (bool, error)

	// InsertBatch adds the given rows in one batch, skipping names that already exist.
	// Returns the number of rows actually inserted.
	InsertBatch(ctx context.Context, rows []*domain.SeenDomain) (int, error)

	// GetByName retrieves a ledger row. Returns ErrNotFound if not exists.
	GetByName(ctx context.Context, domainName string) (*domain.SeenDomain, error)

	// ListByDropDate retrieves rows whose drop date falls on the given calendar day (UTC).
	ListByDropDate(ctx context.Context, day time.Time) ([]*domain.SeenDomain, error)

	// Count returns the total number of ledger rows.
	Count(ctx context.Context) (int, error)
}

// PurchaseAttemptStore provides access to purchase_attempts storage.
type PurchaseAttemptStore interface {
	// Insert adds a new attempt and returns its assigned ID.
	// The attempt must be in Pending state.
	Insert(ctx context.Context, a *domain.PurchaseAttempt) (int64, error)

	// Complete moves a Pending attempt to a terminal status.
	// Returns ErrNotFound if the id is unknown and ErrAttemptFinalized if it is already terminal.
	Complete(ctx context.Context, id int64, status domain.PurchaseStatus, orderID, errorMessage *string) error

	// GetByID retrieves an attempt. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.PurchaseAttempt, error)

	// GetLatestByDomain retrieves the most recent attempt for a domain. Returns ErrNotFound if none.
	GetLatestByDomain(ctx context.Context, domainName string) (*domain.PurchaseAttempt, error)

	// ListByStatus retrieves attempts with the given status, newest first.
	ListByStatus(ctx context.Context, status domain.PurchaseStatus) ([]*domain.PurchaseAttempt, error)

	// ListByTimeRange retrieves attempts with attempted_at in [start, end], newest first.
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.PurchaseAttempt, error)

	// List retrieves the most recent attempts, newest first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*domain.PurchaseAttempt, error)
}

// RunSummaryStore provides access to run_summaries analytics storage.
type RunSummaryStore interface {
	// Insert adds a run summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, s *domain.RunSummary) error

	// GetByRunID retrieves a summary. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// ListRecent retrieves the latest summaries ordered by started_at DESC.
	ListRecent(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}
