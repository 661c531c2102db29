// Package stub provides in-memory registrar gateways for tests and dry runs.
package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

// ErrNoDropList is returned by FetchDropList when no list has been configured.
var ErrNoDropList = errors.New("stub: no drop list configured")

// Gateway implements the drop-list, order and availability ports in memory.
// Orders succeed unless the domain is listed in Rejections or Faults.
type Gateway struct {
	mu sync.Mutex

	DropList    []domain.CandidateRecord
	DropListErr error

	Rejections map[string]string // domain → business error message
	Faults     map[string]error  // domain → transport error
	Taken      map[string]bool   // domain → unavailable

	// OnSubmit runs before each order is answered.
	OnSubmit func(req domain.OrderRequest)

	OrderPrefix string
	requests    []domain.OrderRequest
	orderSeq    int
}

// NewGateway creates a stub gateway that accepts every order.
func NewGateway() *Gateway {
	return &Gateway{
		Rejections:  make(map[string]string),
		Faults:      make(map[string]error),
		Taken:       make(map[string]bool),
		OrderPrefix: "ORD",
	}
}

// FetchDropList returns the configured drop list.
func (g *Gateway) FetchDropList(_ context.Context) ([]domain.CandidateRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.DropListErr != nil {
		return nil, g.DropListErr
	}
	if g.DropList == nil {
		return nil, ErrNoDropList
	}
	out := make([]domain.CandidateRecord, len(g.DropList))
	copy(out, g.DropList)
	return out, nil
}

// SubmitOrder records the request and answers from the configured outcomes.
func (g *Gateway) SubmitOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	hook := g.OnSubmit
	g.mu.Unlock()

	if hook != nil {
		hook(req)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err, ok := g.Faults[req.DomainName]; ok {
		return nil, err
	}
	if msg, ok := g.Rejections[req.DomainName]; ok {
		return &domain.OrderResult{
			DomainName:   req.DomainName,
			Status:       "Rejected",
			Success:      false,
			ErrorMessage: msg,
		}, nil
	}

	g.orderSeq++
	return &domain.OrderResult{
		OrderID:    fmt.Sprintf("%s-%d", g.OrderPrefix, g.orderSeq),
		DomainName: req.DomainName,
		Status:     "Completed",
		Success:    true,
	}, nil
}

// CheckAvailability reports a domain as available unless it is marked Taken.
func (g *Gateway) CheckAvailability(_ context.Context, domainName string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err, ok := g.Faults[domainName]; ok {
		return false, err
	}
	return !g.Taken[domainName], nil
}

// Requests returns a copy of every order request received so far.
func (g *Gateway) Requests() []domain.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.OrderRequest, len(g.requests))
	copy(out, g.requests)
	return out
}
