package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

func strPtr(s string) *string { return &s }

func pendingAttempt(name string, at time.Time) *domain.PurchaseAttempt {
	return &domain.PurchaseAttempt{
		DomainName:  name,
		TLD:         domain.DeriveTLD(name),
		Status:      domain.PurchaseStatusPending,
		AttemptedAt: at,
	}
}

func TestPurchaseAttemptStore_InsertAssignsIDs(t *testing.T) {
	store := NewPurchaseAttemptStore()
	ctx := context.Background()
	now := time.Date(2026, 10, 3, 1, 31, 0, 0, time.UTC)

	id1, err := store.Insert(ctx, pendingAttempt("shop.au", now))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	id2, err := store.Insert(ctx, pendingAttempt("shop.au", now.Add(time.Minute)))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id1 == id2 || id1 == 0 {
		t.Errorf("ids not unique: %d, %d", id1, id2)
	}

	got, err := store.GetByID(ctx, id1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.PurchaseStatusPending {
		t.Errorf("Status = %s, want Pending", got.Status)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestPurchaseAttemptStore_InsertRejectsTerminal(t *testing.T) {
	store := NewPurchaseAttemptStore()

	a := pendingAttempt("shop.au", time.Now())
	a.Status = domain.PurchaseStatusSuccess
	_, err := store.Insert(context.Background(), a)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestPurchaseAttemptStore_CompleteOnce(t *testing.T) {
	store := NewPurchaseAttemptStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, pendingAttempt("shop.au", time.Now()))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Complete(ctx, id, domain.PurchaseStatusSuccess, strPtr("ORD-1"), nil); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	err = store.Complete(ctx, id, domain.PurchaseStatusFailed, nil, strPtr("late"))
	if !errors.Is(err, storage.ErrAttemptFinalized) {
		t.Errorf("Expected ErrAttemptFinalized, got %v", err)
	}

	got, _ := store.GetByID(ctx, id)
	if got.Status != domain.PurchaseStatusSuccess {
		t.Errorf("Status = %s, want Success", got.Status)
	}
	if got.OrderID == nil || *got.OrderID != "ORD-1" {
		t.Errorf("OrderID = %v, want ORD-1", got.OrderID)
	}
	if got.ErrorMessage != nil {
		t.Errorf("ErrorMessage = %v, want nil", *got.ErrorMessage)
	}
}

func TestPurchaseAttemptStore_CompleteErrors(t *testing.T) {
	store := NewPurchaseAttemptStore()
	ctx := context.Background()

	if err := store.Complete(ctx, 42, domain.PurchaseStatusFailed, nil, strPtr("x")); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	id, _ := store.Insert(ctx, pendingAttempt("shop.au", time.Now()))
	if err := store.Complete(ctx, id, domain.PurchaseStatusPending, nil, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestPurchaseAttemptStore_Queries(t *testing.T) {
	store := NewPurchaseAttemptStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 3, 1, 31, 0, 0, time.UTC)

	idOld, _ := store.Insert(ctx, pendingAttempt("shop.au", base))
	idNew, _ := store.Insert(ctx, pendingAttempt("shop.au", base.Add(24*time.Hour)))
	idBiz, _ := store.Insert(ctx, pendingAttempt("biz.au", base.Add(time.Hour)))

	_ = store.Complete(ctx, idOld, domain.PurchaseStatusFailed, nil, strPtr("timeout"))
	_ = store.Complete(ctx, idBiz, domain.PurchaseStatusFailed, nil, strPtr("taken"))

	latest, err := store.GetLatestByDomain(ctx, "shop.au")
	if err != nil {
		t.Fatalf("GetLatestByDomain failed: %v", err)
	}
	if latest.ID != idNew {
		t.Errorf("latest ID = %d, want %d", latest.ID, idNew)
	}

	failed, _ := store.ListByStatus(ctx, domain.PurchaseStatusFailed)
	if len(failed) != 2 || failed[0].ID != idBiz || failed[1].ID != idOld {
		t.Errorf("ListByStatus order wrong: %+v", failed)
	}

	window, _ := store.ListByTimeRange(ctx, base, base.Add(time.Hour))
	if len(window) != 2 {
		t.Errorf("ListByTimeRange len = %d, want 2", len(window))
	}

	recent, _ := store.List(ctx, 1)
	if len(recent) != 1 || recent[0].ID != idNew {
		t.Errorf("List(1) = %+v", recent)
	}

	if _, err := store.GetLatestByDomain(ctx, "none.au"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
