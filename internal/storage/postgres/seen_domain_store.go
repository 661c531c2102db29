package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// SeenDomainStore implements storage.SeenDomainStore using PostgreSQL.
type SeenDomainStore struct {
	pool *Pool
}

// NewSeenDomainStore creates a new SeenDomainStore.
func NewSeenDomainStore(pool *Pool) *SeenDomainStore {
	return &SeenDomainStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SeenDomainStore = (*SeenDomainStore)(nil)

const seenDomainColumns = `domain_name, drop_date, tld, source, first_seen_at`

// Exists reports whether a domain name has ever been admitted.
func (s *SeenDomainStore) Exists(ctx context.Context, domainName string) (exists bool, err error) {
	defer func(start time.Time) { observe("seen_exists", start, err) }(time.Now())

	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM seen_domains WHERE domain_name = $1)`,
		domainName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check seen domain: %w", err)
	}
	return exists, nil
}

// InsertBatch adds rows in one transaction, skipping names already in the ledger.
func (s *SeenDomainStore) InsertBatch(ctx context.Context, rows []*domain.SeenDomain) (inserted int, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, r := range rows {
		if r == nil || r.DomainName == "" {
			return 0, storage.ErrInvalidInput
		}
	}
	defer func(start time.Time) { observe("seen_insert_batch", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO seen_domains (` + seenDomainColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (domain_name) DO NOTHING
	`

	now := time.Now().UTC()
	for _, r := range rows {
		firstSeen := r.FirstSeenAt
		if firstSeen.IsZero() {
			firstSeen = now
		}
		tag, err := tx.Exec(ctx, query, r.DomainName, r.DropDate, r.TLD, string(r.Source), firstSeen)
		if err != nil {
			return 0, fmt.Errorf("insert seen domain %s: %w", r.DomainName, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

// GetByName retrieves a ledger row. Returns ErrNotFound if not exists.
func (s *SeenDomainStore) GetByName(ctx context.Context, domainName string) (_ *domain.SeenDomain, err error) {
	defer func(start time.Time) { observe("seen_get", start, err) }(time.Now())

	row := s.pool.QueryRow(ctx,
		`SELECT `+seenDomainColumns+` FROM seen_domains WHERE domain_name = $1`,
		domainName,
	)
	r, err := scanSeenDomain(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get seen domain: %w", err)
	}
	return r, nil
}

// ListByDropDate retrieves rows dropping on the given UTC calendar day, ordered by name.
func (s *SeenDomainStore) ListByDropDate(ctx context.Context, day time.Time) (_ []*domain.SeenDomain, err error) {
	defer func(start time.Time) { observe("seen_list_by_drop_date", start, err) }(time.Now())

	y, m, d := day.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	rows, err := s.pool.Query(ctx, `
		SELECT `+seenDomainColumns+`
		FROM seen_domains
		WHERE drop_date >= $1 AND drop_date < $2
		ORDER BY domain_name ASC
	`, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list seen domains by drop date: %w", err)
	}
	defer rows.Close()

	var result []*domain.SeenDomain
	for rows.Next() {
		r, err := scanSeenDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seen domain row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen domain rows: %w", err)
	}
	return result, nil
}

// Count returns the total number of ledger rows.
func (s *SeenDomainStore) Count(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { observe("seen_count", start, err) }(time.Now())

	if err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM seen_domains`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count seen domains: %w", err)
	}
	return n, nil
}

func scanSeenDomain(row pgx.Row) (*domain.SeenDomain, error) {
	var r domain.SeenDomain
	var source string
	if err := row.Scan(&r.DomainName, &r.DropDate, &r.TLD, &source, &r.FirstSeenAt); err != nil {
		return nil, err
	}
	r.Source = domain.Source(source)
	r.DropDate = r.DropDate.UTC()
	r.FirstSeenAt = r.FirstSeenAt.UTC()
	return &r, nil
}
