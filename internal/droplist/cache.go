// Package droplist holds the cross-run dedup gate for drop-list candidates.
package droplist

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// Cache admits each domain name at most once, ever.
// Names are compared and stored lowercase.
type Cache struct {
	store storage.SeenDomainStore
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewCache creates a dedup gate backed by the seen ledger.
func NewCache(store storage.SeenDomainStore, logger logrus.FieldLogger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		store: store,
		log:   logger.WithField("component", "droplist"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock for FirstSeenAt.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Admit returns the candidates never seen before and records them in the ledger.
// Previously seen names are dropped silently. Names repeated within the input
// are admitted once. All new rows are committed as a single batch after the
// whole input has been checked.
func (c *Cache) Admit(ctx context.Context, candidates []domain.CandidateRecord, source domain.Source) ([]domain.CandidateRecord, error) {
	if !source.IsValid() {
		return nil, fmt.Errorf("admit: unknown source %q: %w", source, storage.ErrInvalidInput)
	}

	admitted := make([]domain.CandidateRecord, 0, len(candidates))
	staged := make([]*domain.SeenDomain, 0, len(candidates))
	inBatch := make(map[string]struct{}, len(candidates))
	firstSeen := c.now()
	skipped := 0

	for _, cand := range candidates {
		name := domain.NormalizeDomainName(cand.DomainName)
		if name == "" {
			skipped++
			continue
		}
		if _, dup := inBatch[name]; dup {
			skipped++
			continue
		}

		seen, err := c.store.Exists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check seen %s: %w", name, err)
		}
		if seen {
			skipped++
			continue
		}

		inBatch[name] = struct{}{}
		rec := domain.CandidateRecord{
			DomainName: name,
			DropDate:   cand.DropDate,
			TLD:        domain.DeriveTLD(name),
		}
		admitted = append(admitted, rec)
		staged = append(staged, &domain.SeenDomain{
			DomainName:  name,
			DropDate:    cand.DropDate,
			TLD:         rec.TLD,
			Source:      source,
			FirstSeenAt: firstSeen,
		})
	}

	if len(staged) > 0 {
		inserted, err := c.store.InsertBatch(ctx, staged)
		if err != nil {
			return nil, fmt.Errorf("insert seen domains: %w", err)
		}
		if inserted != len(staged) {
			c.log.WithFields(logrus.Fields{
				"staged":   len(staged),
				"inserted": inserted,
			}).Warn("seen ledger already held some staged names")
		}
	}

	c.log.WithFields(logrus.Fields{
		"source":   source,
		"input":    len(candidates),
		"admitted": len(admitted),
		"skipped":  skipped,
	}).Debug("drop list admitted")

	return admitted, nil
}

// Exists reports whether a domain name is in the seen ledger.
func (c *Cache) Exists(ctx context.Context, domainName string) (bool, error) {
	name := domain.NormalizeDomainName(domainName)
	if name == "" {
		return false, nil
	}
	return c.store.Exists(ctx, name)
}
