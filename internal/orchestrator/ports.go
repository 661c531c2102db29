package orchestrator

import (
	"context"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

// DropListGateway fetches the registry drop list. One network call, no retry owned by the caller.
type DropListGateway interface {
	FetchDropList(ctx context.Context) ([]domain.CandidateRecord, error)
}

// OrderGateway submits one registration order.
// A returned OrderResult with Success=false is a business rejection;
// a non-nil error is a transport or unexpected fault.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
}
