package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// SeenDomainStore implements storage.SeenDomainStore using SQLite.
type SeenDomainStore struct {
	db *DB
}

// NewSeenDomainStore creates a new SeenDomainStore.
func NewSeenDomainStore(db *DB) *SeenDomainStore {
	return &SeenDomainStore{db: db}
}

var _ storage.SeenDomainStore = (*SeenDomainStore)(nil)

// Exists reports whether a domain name has ever been admitted.
func (s *SeenDomainStore) Exists(ctx context.Context, domainName string) (_ bool, err error) {
	defer func(start time.Time) { observe("seen_exists", start, err) }(time.Now())

	var count int64
	err = s.db.WithContext(ctx).Model(&seenDomainRow{}).Where("domain_name = ?", domainName).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check seen domain: %w", err)
	}
	return count > 0, nil
}

// InsertBatch adds rows in one statement with ON CONFLICT DO NOTHING.
func (s *SeenDomainStore) InsertBatch(ctx context.Context, rows []*domain.SeenDomain) (_ int, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	models := make([]seenDomainRow, 0, len(rows))
	for _, r := range rows {
		if r == nil || r.DomainName == "" {
			return 0, storage.ErrInvalidInput
		}
		firstSeen := r.FirstSeenAt
		if firstSeen.IsZero() {
			firstSeen = now
		}
		models = append(models, seenDomainRow{
			DomainName:  r.DomainName,
			DropDate:    r.DropDate.UTC(),
			TLD:         r.TLD,
			Source:      string(r.Source),
			FirstSeenAt: firstSeen.UTC(),
		})
	}
	defer func(start time.Time) { observe("seen_insert_batch", start, err) }(time.Now())

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "domain_name"}}, DoNothing: true}).
		Create(&models)
	if res.Error != nil {
		return 0, fmt.Errorf("insert seen domains: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// GetByName retrieves a ledger row. Returns ErrNotFound if not exists.
func (s *SeenDomainStore) GetByName(ctx context.Context, domainName string) (_ *domain.SeenDomain, err error) {
	defer func(start time.Time) { observe("seen_get", start, err) }(time.Now())

	var row seenDomainRow
	err = s.db.WithContext(ctx).Where("domain_name = ?", domainName).Take(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get seen domain: %w", err)
	}
	return row.toDomain(), nil
}

// ListByDropDate retrieves rows dropping on the given UTC calendar day, ordered by name.
func (s *SeenDomainStore) ListByDropDate(ctx context.Context, day time.Time) (_ []*domain.SeenDomain, err error) {
	defer func(start time.Time) { observe("seen_list_by_drop_date", start, err) }(time.Now())

	y, m, d := day.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var rows []seenDomainRow
	err = s.db.WithContext(ctx).
		Where("drop_date >= ? AND drop_date < ?", from, from.AddDate(0, 0, 1)).
		Order("domain_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list seen domains by drop date: %w", err)
	}

	result := make([]*domain.SeenDomain, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

// Count returns the total number of ledger rows.
func (s *SeenDomainStore) Count(ctx context.Context) (_ int, err error) {
	defer func(start time.Time) { observe("seen_count", start, err) }(time.Now())

	var n int64
	if err = s.db.WithContext(ctx).Model(&seenDomainRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count seen domains: %w", err)
	}
	return int(n), nil
}
