package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// PurchaseAttemptStore implements storage.PurchaseAttemptStore using SQLite.
type PurchaseAttemptStore struct {
	db *DB
}

// NewPurchaseAttemptStore creates a new PurchaseAttemptStore.
func NewPurchaseAttemptStore(db *DB) *PurchaseAttemptStore {
	return &PurchaseAttemptStore{db: db}
}

var _ storage.PurchaseAttemptStore = (*PurchaseAttemptStore)(nil)

const newestFirst = "attempted_at DESC, id DESC"

// Insert adds a Pending attempt and returns the generated id.
func (s *PurchaseAttemptStore) Insert(ctx context.Context, a *domain.PurchaseAttempt) (_ int64, err error) {
	if a == nil || a.DomainName == "" || a.Status != domain.PurchaseStatusPending {
		return 0, storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("attempt_insert", start, err) }(time.Now())

	row := purchaseAttemptRow{
		DomainName:  a.DomainName,
		TLD:         a.TLD,
		Status:      string(a.Status),
		AttemptedAt: a.AttemptedAt.UTC(),
	}
	if row.AttemptedAt.IsZero() {
		row.AttemptedAt = time.Now().UTC()
	}
	if err = s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert purchase attempt: %w", err)
	}
	return row.ID, nil
}

// Complete moves a Pending attempt to Success or Failed, at most once.
func (s *PurchaseAttemptStore) Complete(ctx context.Context, id int64, status domain.PurchaseStatus, orderID, errorMessage *string) (err error) {
	if !status.IsTerminal() {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("attempt_complete", start, err) }(time.Now())

	res := s.db.WithContext(ctx).
		Model(&purchaseAttemptRow{}).
		Where("id = ? AND status = ?", id, string(domain.PurchaseStatusPending)).
		Updates(map[string]any{
			"status":        string(status),
			"order_id":      orderID,
			"error_message": errorMessage,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("complete purchase attempt: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err = s.db.WithContext(ctx).Model(&purchaseAttemptRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check purchase attempt: %w", err)
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	return storage.ErrAttemptFinalized
}

// GetByID retrieves an attempt. Returns ErrNotFound if not exists.
func (s *PurchaseAttemptStore) GetByID(ctx context.Context, id int64) (_ *domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_get", start, err) }(time.Now())

	var row purchaseAttemptRow
	if err = s.db.WithContext(ctx).Take(&row, id).Error; err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get purchase attempt: %w", err)
	}
	return row.toDomain(), nil
}

// GetLatestByDomain retrieves the most recent attempt for a domain.
func (s *PurchaseAttemptStore) GetLatestByDomain(ctx context.Context, domainName string) (_ *domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_latest", start, err) }(time.Now())

	var row purchaseAttemptRow
	err = s.db.WithContext(ctx).Where("domain_name = ?", domainName).Order(newestFirst).Take(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest purchase attempt: %w", err)
	}
	return row.toDomain(), nil
}

// ListByStatus retrieves attempts with the given status, newest first.
func (s *PurchaseAttemptStore) ListByStatus(ctx context.Context, status domain.PurchaseStatus) (_ []*domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_list_by_status", start, err) }(time.Now())

	var rows []purchaseAttemptRow
	if err = s.db.WithContext(ctx).Where("status = ?", string(status)).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list purchase attempts by status: %w", err)
	}
	return toAttempts(rows), nil
}

// ListByTimeRange retrieves attempts with attempted_at in [start, end], newest first.
func (s *PurchaseAttemptStore) ListByTimeRange(ctx context.Context, start, end time.Time) (_ []*domain.PurchaseAttempt, err error) {
	defer func(began time.Time) { observe("attempt_list_by_time_range", began, err) }(time.Now())

	var rows []purchaseAttemptRow
	err = s.db.WithContext(ctx).
		Where("attempted_at >= ? AND attempted_at <= ?", start.UTC(), end.UTC()).
		Order(newestFirst).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list purchase attempts by time range: %w", err)
	}
	return toAttempts(rows), nil
}

// List retrieves the most recent attempts. limit <= 0 means no limit.
func (s *PurchaseAttemptStore) List(ctx context.Context, limit int) (_ []*domain.PurchaseAttempt, err error) {
	defer func(start time.Time) { observe("attempt_list", start, err) }(time.Now())

	q := s.db.WithContext(ctx).Order(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []purchaseAttemptRow
	if err = q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list purchase attempts: %w", err)
	}
	return toAttempts(rows), nil
}

func toAttempts(rows []purchaseAttemptRow) []*domain.PurchaseAttempt {
	result := make([]*domain.PurchaseAttempt, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result
}
