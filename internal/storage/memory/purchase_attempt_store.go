package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// PurchaseAttemptStore is an in-memory implementation of storage.PurchaseAttemptStore.
type PurchaseAttemptStore struct {
	mu     sync.RWMutex
	data   map[int64]*domain.PurchaseAttempt // keyed by id
	nextID int64
	now    func() time.Time
}

// NewPurchaseAttemptStore creates a new in-memory purchase attempt store.
func NewPurchaseAttemptStore() *PurchaseAttemptStore {
	return &PurchaseAttemptStore{
		data: make(map[int64]*domain.PurchaseAttempt),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Insert adds a Pending attempt and returns its ID.
func (s *PurchaseAttemptStore) Insert(_ context.Context, a *domain.PurchaseAttempt) (int64, error) {
	if a == nil || a.DomainName == "" || a.Status != domain.PurchaseStatusPending {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now()

	attemptCopy := *a
	attemptCopy.ID = s.nextID
	if attemptCopy.AttemptedAt.IsZero() {
		attemptCopy.AttemptedAt = now
	}
	attemptCopy.CreatedAt = now
	attemptCopy.UpdatedAt = now
	s.data[attemptCopy.ID] = &attemptCopy

	return attemptCopy.ID, nil
}

// Complete moves a Pending attempt to Success or Failed.
func (s *PurchaseAttemptStore) Complete(_ context.Context, id int64, status domain.PurchaseStatus, orderID, errorMessage *string) error {
	if !status.IsTerminal() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.data[id]
	if !ok {
		return storage.ErrNotFound
	}
	if a.Status.IsTerminal() {
		return storage.ErrAttemptFinalized
	}

	a.Status = status
	a.OrderID = copyString(orderID)
	a.ErrorMessage = copyString(errorMessage)
	a.UpdatedAt = s.now()
	return nil
}

// GetByID retrieves an attempt. Returns ErrNotFound if not exists.
func (s *PurchaseAttemptStore) GetByID(_ context.Context, id int64) (*domain.PurchaseAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyAttempt(a), nil
}

// GetLatestByDomain retrieves the most recent attempt for a domain.
func (s *PurchaseAttemptStore) GetLatestByDomain(_ context.Context, domainName string) (*domain.PurchaseAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.PurchaseAttempt
	for _, a := range s.data {
		if a.DomainName != domainName {
			continue
		}
		if latest == nil || newerThan(a, latest) {
			latest = a
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyAttempt(latest), nil
}

// ListByStatus retrieves attempts with the given status, newest first.
func (s *PurchaseAttemptStore) ListByStatus(_ context.Context, status domain.PurchaseStatus) ([]*domain.PurchaseAttempt, error) {
	return s.filter(func(a *domain.PurchaseAttempt) bool { return a.Status == status }, 0), nil
}

// ListByTimeRange retrieves attempts with attempted_at in [start, end], newest first.
func (s *PurchaseAttemptStore) ListByTimeRange(_ context.Context, start, end time.Time) ([]*domain.PurchaseAttempt, error) {
	return s.filter(func(a *domain.PurchaseAttempt) bool {
		return !a.AttemptedAt.Before(start) && !a.AttemptedAt.After(end)
	}, 0), nil
}

// List retrieves the most recent attempts, newest first.
func (s *PurchaseAttemptStore) List(_ context.Context, limit int) ([]*domain.PurchaseAttempt, error) {
	return s.filter(func(*domain.PurchaseAttempt) bool { return true }, limit), nil
}

func (s *PurchaseAttemptStore) filter(keep func(*domain.PurchaseAttempt) bool, limit int) []*domain.PurchaseAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PurchaseAttempt
	for _, a := range s.data {
		if keep(a) {
			result = append(result, copyAttempt(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return newerThan(result[i], result[j])
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// newerThan orders by attempted_at DESC, then id DESC.
func newerThan(a, b *domain.PurchaseAttempt) bool {
	if !a.AttemptedAt.Equal(b.AttemptedAt) {
		return a.AttemptedAt.After(b.AttemptedAt)
	}
	return a.ID > b.ID
}

func copyAttempt(a *domain.PurchaseAttempt) *domain.PurchaseAttempt {
	attemptCopy := *a
	attemptCopy.OrderID = copyString(a.OrderID)
	attemptCopy.ErrorMessage = copyString(a.ErrorMessage)
	return &attemptCopy
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Verify interface compliance at compile time.
var _ storage.PurchaseAttemptStore = (*PurchaseAttemptStore)(nil)
