package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "agent.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestSeenDomainStore(t *testing.T) {
	ctx := context.Background()
	store := NewSeenDomainStore(openTestDB(t))
	drop := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	n, err := store.InsertBatch(ctx, []*domain.SeenDomain{
		{DomainName: "shop.au", DropDate: drop, TLD: ".au", Source: domain.SourceAPI},
		{DomainName: "tech.com.au", DropDate: drop.Add(5 * time.Hour), TLD: ".com.au", Source: domain.SourceAPI},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.InsertBatch(ctx, []*domain.SeenDomain{
		{DomainName: "shop.au", DropDate: drop.AddDate(0, 0, 2), Source: domain.SourceFile},
		{DomainName: "late.au", DropDate: drop.AddDate(0, 0, 1), TLD: ".au", Source: domain.SourceFile},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "existing names are skipped")

	got, err := store.GetByName(ctx, "shop.au")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceAPI, got.Source, "first sighting wins")
	assert.True(t, drop.Equal(got.DropDate))
	assert.False(t, got.FirstSeenAt.IsZero())

	ok, err := store.Exists(ctx, "tech.com.au")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "nope.au")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.GetByName(ctx, "nope.au")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	onDay, err := store.ListByDropDate(ctx, drop)
	require.NoError(t, err)
	require.Len(t, onDay, 2)
	assert.Equal(t, "shop.au", onDay[0].DomainName)
	assert.Equal(t, "tech.com.au", onDay[1].DomainName)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = store.InsertBatch(ctx, []*domain.SeenDomain{nil})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestPurchaseAttemptStore(t *testing.T) {
	ctx := context.Background()
	store := NewPurchaseAttemptStore(openTestDB(t))
	base := time.Date(2026, 10, 15, 1, 31, 0, 0, time.UTC)

	pending := func(name string, at time.Time) *domain.PurchaseAttempt {
		return &domain.PurchaseAttempt{DomainName: name, TLD: ".au", Status: domain.PurchaseStatusPending, AttemptedAt: at}
	}

	first, err := store.Insert(ctx, pending("shop.au", base))
	require.NoError(t, err)
	second, err := store.Insert(ctx, pending("tech.au", base.Add(time.Second)))
	require.NoError(t, err)
	third, err := store.Insert(ctx, pending("shop.au", base.Add(48*time.Hour)))
	require.NoError(t, err)
	assert.Less(t, first, second)

	require.NoError(t, store.Complete(ctx, first, domain.PurchaseStatusFailed, nil, strPtr("taken")))
	require.NoError(t, store.Complete(ctx, second, domain.PurchaseStatusSuccess, strPtr("ORD-7"), nil))

	assert.ErrorIs(t, store.Complete(ctx, second, domain.PurchaseStatusFailed, nil, strPtr("again")), storage.ErrAttemptFinalized)
	assert.ErrorIs(t, store.Complete(ctx, 999, domain.PurchaseStatusFailed, nil, nil), storage.ErrNotFound)
	assert.ErrorIs(t, store.Complete(ctx, third, domain.PurchaseStatusPending, nil, nil), storage.ErrInvalidInput)

	got, err := store.GetByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusSuccess, got.Status)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, "ORD-7", *got.OrderID)
	assert.Nil(t, got.ErrorMessage)

	_, err = store.GetByID(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	latest, err := store.GetLatestByDomain(ctx, "shop.au")
	require.NoError(t, err)
	assert.Equal(t, third, latest.ID)
	assert.Equal(t, domain.PurchaseStatusPending, latest.Status)

	failed, err := store.ListByStatus(ctx, domain.PurchaseStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, first, failed[0].ID)

	window, err := store.ListByTimeRange(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, second, window[0].ID)

	recent, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, third, recent[0].ID)
	assert.Equal(t, second, recent[1].ID)

	_, err = store.Insert(ctx, &domain.PurchaseAttempt{DomainName: "x.au", Status: domain.PurchaseStatusFailed})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRunSummaryStore(t *testing.T) {
	ctx := context.Background()
	store := NewRunSummaryStore(openTestDB(t))
	base := time.Date(2026, 10, 13, 14, 31, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2"} {
		require.NoError(t, store.Insert(ctx, &domain.RunSummary{
			RunID:      id,
			Trigger:    "schedule",
			Status:     domain.RunStatusCompleted,
			Selected:   i + 1,
			StartedAt:  base.AddDate(0, 0, i),
			FinishedAt: base.AddDate(0, 0, i).Add(time.Second),
			DurationMs: 1000,
		}))
	}
	assert.ErrorIs(t, store.Insert(ctx, &domain.RunSummary{RunID: "run-1"}), storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Selected)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)

	_, err = store.GetByRunID(ctx, "run-9")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := store.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "run-2", recent[0].RunID)
}
