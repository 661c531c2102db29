package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

func seenRow(name string, drop time.Time) *domain.SeenDomain {
	return &domain.SeenDomain{
		DomainName:  name,
		DropDate:    drop,
		TLD:         domain.DeriveTLD(name),
		Source:      domain.SourceAPI,
		FirstSeenAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSeenDomainStore_InsertBatchSkipsExisting(t *testing.T) {
	store := NewSeenDomainStore()
	ctx := context.Background()
	drop := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)

	n, err := store.InsertBatch(ctx, []*domain.SeenDomain{seenRow("shop.au", drop), seenRow("biz.au", drop)})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	// Re-insert with a different source must not overwrite the first sighting
	again := seenRow("shop.au", drop)
	again.Source = domain.SourceFile
	n, err = store.InsertBatch(ctx, []*domain.SeenDomain{again, seenRow("new.au", drop)})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1", n)
	}

	got, err := store.GetByName(ctx, "shop.au")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got.Source != domain.SourceAPI {
		t.Errorf("Source = %s, want %s", got.Source, domain.SourceAPI)
	}

	count, _ := store.Count(ctx)
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestSeenDomainStore_Exists(t *testing.T) {
	store := NewSeenDomainStore()
	ctx := context.Background()

	ok, err := store.Exists(ctx, "shop.au")
	if err != nil || ok {
		t.Fatalf("Exists before insert = %v, %v", ok, err)
	}

	if _, err := store.InsertBatch(ctx, []*domain.SeenDomain{seenRow("shop.au", time.Now())}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	ok, err = store.Exists(ctx, "shop.au")
	if err != nil || !ok {
		t.Errorf("Exists after insert = %v, %v", ok, err)
	}
}

func TestSeenDomainStore_InvalidInput(t *testing.T) {
	store := NewSeenDomainStore()

	_, err := store.InsertBatch(context.Background(), []*domain.SeenDomain{{DomainName: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestSeenDomainStore_NotFound(t *testing.T) {
	store := NewSeenDomainStore()

	_, err := store.GetByName(context.Background(), "missing.au")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSeenDomainStore_ListByDropDate(t *testing.T) {
	store := NewSeenDomainStore()
	ctx := context.Background()
	day1 := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	_, err := store.InsertBatch(ctx, []*domain.SeenDomain{
		seenRow("zeta.au", day1),
		seenRow("alpha.au", day1.Add(5*time.Hour)),
		seenRow("other.au", day2),
	})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	rows, err := store.ListByDropDate(ctx, day1)
	if err != nil {
		t.Fatalf("ListByDropDate failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].DomainName != "alpha.au" || rows[1].DomainName != "zeta.au" {
		t.Errorf("unexpected order: %s, %s", rows[0].DomainName, rows[1].DomainName)
	}
}
