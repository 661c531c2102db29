package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// SeenDomainStore is an in-memory implementation of storage.SeenDomainStore.
type SeenDomainStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SeenDomain // keyed by domain_name
}

// NewSeenDomainStore creates a new in-memory seen-domain ledger.
func NewSeenDomainStore() *SeenDomainStore {
	return &SeenDomainStore{
		data: make(map[string]*domain.SeenDomain),
	}
}

// Exists reports whether a domain name has ever been admitted.
func (s *SeenDomainStore) Exists(_ context.Context, domainName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[domainName]
	return ok, nil
}

// InsertBatch adds rows, skipping names that already exist.
func (s *SeenDomainStore) InsertBatch(_ context.Context, rows []*domain.SeenDomain) (int, error) {
	for _, r := range rows {
		if r == nil || r.DomainName == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, r := range rows {
		if _, exists := s.data[r.DomainName]; exists {
			continue
		}
		rowCopy := *r
		s.data[r.DomainName] = &rowCopy
		inserted++
	}
	return inserted, nil
}

// GetByName retrieves a ledger row. Returns ErrNotFound if not exists.
func (s *SeenDomainStore) GetByName(_ context.Context, domainName string) (*domain.SeenDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[domainName]
	if !ok {
		return nil, storage.ErrNotFound
	}
	rowCopy := *r
	return &rowCopy, nil
}

// ListByDropDate retrieves rows dropping on the given UTC calendar day, ordered by name.
func (s *SeenDomainStore) ListByDropDate(_ context.Context, day time.Time) ([]*domain.SeenDomain, error) {
	y, m, d := day.UTC().Date()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SeenDomain
	for _, r := range s.data {
		ry, rm, rd := r.DropDate.UTC().Date()
		if ry == y && rm == m && rd == d {
			rowCopy := *r
			result = append(result, &rowCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DomainName < result[j].DomainName
	})
	return result, nil
}

// Count returns the total number of ledger rows.
func (s *SeenDomainStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// Verify interface compliance at compile time.
var _ storage.SeenDomainStore = (*SeenDomainStore)(nil)
