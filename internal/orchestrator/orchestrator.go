// Package orchestrator drives one purchase run.
// It coordinates: drop-list fetch → dedup admit → selection → sequential ordering.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/droplist"
	"github.com/LuckyB33f/domainAgent/internal/idhash"
	"github.com/LuckyB33f/domainAgent/internal/selection"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

// Whole-run faults. Nothing downstream of the fetch executes when these are returned.
var (
	ErrFetchDropList = errors.New("fetch drop list")
	ErrEmptyDropList = errors.New("drop list returned no data")
)

// OrderDefaults are the static per-run values copied into every order request.
type OrderDefaults struct {
	RegistrantContactID string
	AdminContactID      string // empty means RegistrantContactID
	TechContactID       string // empty means RegistrantContactID
	BillingContactID    string // empty means RegistrantContactID
	Nameservers         []string
	Period              int // registration years, <= 0 means 1
}

// Orchestrator coordinates one purchase run.
type Orchestrator struct {
	dropList DropListGateway
	orders   OrderGateway
	cache    *droplist.Cache
	selector *selection.Selector
	attempts storage.PurchaseAttemptStore

	defaults OrderDefaults
	log      logrus.FieldLogger
	now      func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required ports
	DropList DropListGateway
	Orders   OrderGateway
	Attempts storage.PurchaseAttemptStore

	// Required components
	Cache    *droplist.Cache
	Selector *selection.Selector

	Defaults OrderDefaults

	// Optional
	Logger logrus.FieldLogger
	Now    func() time.Time // Injectable clock for AttemptedAt
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	defaults := opts.Defaults
	defaults.Nameservers = append([]string(nil), opts.Defaults.Nameservers...)

	return &Orchestrator{
		dropList: opts.DropList,
		orders:   opts.Orders,
		cache:    opts.Cache,
		selector: opts.Selector,
		attempts: opts.Attempts,
		defaults: defaults,
		log:      logger.WithField("component", "orchestrator"),
		now:      now,
	}
}

// RunResult contains results from one purchase run.
type RunResult struct {
	Fetched   int
	Admitted  int
	Selected  int
	Outcomes  []domain.PurchaseOutcome
	Cancelled bool // stopped between items
}

// Succeeded returns the number of successful outcomes.
func (r *RunResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (r *RunResult) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Execute runs one purchase cycle.
// Steps:
//  1. Fetch the drop list (failure or no data aborts the run)
//  2. Admit newly seen candidates into the ledger
//  3. Select the ranked, capped purchase set
//  4. Order each selected candidate in turn
//
// Per-item faults never abort the run. Cancellation is checked before each
// item; an item already started runs to completion and is persisted.
func (o *Orchestrator) Execute(ctx context.Context) (*RunResult, error) {
	result := &RunResult{Outcomes: []domain.PurchaseOutcome{}}

	// Step 1: Fetch
	list, err := o.dropList.FetchDropList(ctx)
	if err != nil {
		o.log.WithError(err).Error("drop list fetch failed")
		return result, fmt.Errorf("%w: %w", ErrFetchDropList, err)
	}
	if len(list) == 0 {
		o.log.Warn("drop list returned no data")
		return result, ErrEmptyDropList
	}
	result.Fetched = len(list)

	// Step 2: Admit
	admitted, err := o.cache.Admit(ctx, list, domain.SourceAPI)
	if err != nil {
		o.log.WithError(err).Error("drop list admit failed")
		return result, fmt.Errorf("admit drop list: %w", err)
	}
	result.Admitted = len(admitted)

	// Step 3: Select
	selected := o.selector.Select(admitted)
	result.Selected = len(selected)

	o.log.WithFields(logrus.Fields{
		"fetched":  result.Fetched,
		"admitted": result.Admitted,
		"selected": result.Selected,
	}).Info("purchase set selected")

	// Step 4: Order each candidate
	for i, cand := range selected {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			o.log.WithFields(logrus.Fields{
				"processed": i,
				"remaining": len(selected) - i,
			}).Warn("run cancelled between items")
			break
		}

		// The in-flight item ignores cancellation so it never stays Pending.
		outcome := o.purchase(context.WithoutCancel(ctx), cand)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// purchase runs the per-item sub-workflow: Pending → submit → Success|Failed.
func (o *Orchestrator) purchase(ctx context.Context, cand domain.CandidateRecord) domain.PurchaseOutcome {
	entry := o.log.WithField("domain", cand.DomainName)

	// a. Record intent before any network call
	id, err := o.attempts.Insert(ctx, &domain.PurchaseAttempt{
		DomainName:  cand.DomainName,
		TLD:         cand.TLD,
		Status:      domain.PurchaseStatusPending,
		AttemptedAt: o.now(),
	})
	if err != nil {
		entry.WithError(err).Error("record pending attempt failed, order not submitted")
		return failedOutcome(cand.DomainName, nil, fmt.Sprintf("record pending attempt: %v", err))
	}

	// b. Build and c. submit
	res, err := o.submit(ctx, o.buildRequest(cand, id))

	status := domain.PurchaseStatusFailed
	var orderID, errMsg *string
	switch {
	case err != nil:
		errMsg = strPtr(err.Error())
	case res == nil:
		errMsg = strPtr("registrar returned no order result")
	case !res.Success:
		msg := res.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("order rejected with status %q", res.Status)
		}
		errMsg = &msg
	default:
		status = domain.PurchaseStatusSuccess
		if res.OrderID != "" {
			orderID = strPtr(res.OrderID)
		}
	}

	// d. Persist the transition
	if err := o.attempts.Complete(ctx, id, status, orderID, errMsg); err != nil {
		entry.WithError(err).WithFields(logrus.Fields{
			"attempt_id": id,
			"status":     status,
			"order_id":   deref(orderID),
		}).Error("record attempt result failed")
		return failedOutcome(cand.DomainName, orderID, fmt.Sprintf("record %s result: %v", status, err))
	}

	if status == domain.PurchaseStatusSuccess {
		entry.WithField("order_id", deref(orderID)).Info("domain ordered")
		return domain.PurchaseOutcome{DomainName: cand.DomainName, Success: true, OrderID: orderID}
	}

	entry.WithField("error", *errMsg).Warn("domain order failed")
	return domain.PurchaseOutcome{DomainName: cand.DomainName, ErrorMessage: errMsg}
}

// submit calls the order gateway. A gateway panic becomes an error so the
// attempt is still marked Failed and later items still run.
func (o *Orchestrator) submit(ctx context.Context, req domain.OrderRequest) (res *domain.OrderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("order gateway panic: %v", r)
		}
	}()
	return o.orders.SubmitOrder(ctx, req)
}

func (o *Orchestrator) buildRequest(cand domain.CandidateRecord, attemptID int64) domain.OrderRequest {
	d := o.defaults
	period := d.Period
	if period <= 0 {
		period = 1
	}

	var nameservers []string
	if len(d.Nameservers) > 0 {
		nameservers = append([]string(nil), d.Nameservers...)
	}

	return domain.OrderRequest{
		DomainName:          cand.DomainName,
		Period:              period,
		RegistrantContactID: d.RegistrantContactID,
		AdminContactID:      orDefault(d.AdminContactID, d.RegistrantContactID),
		TechContactID:       orDefault(d.TechContactID, d.RegistrantContactID),
		BillingContactID:    orDefault(d.BillingContactID, d.RegistrantContactID),
		Nameservers:         nameservers,
		ClientReference:     idhash.ComputeOrderReference(cand.DomainName, attemptID),
	}
}

func failedOutcome(name string, orderID *string, msg string) domain.PurchaseOutcome {
	return domain.PurchaseOutcome{DomainName: name, OrderID: orderID, ErrorMessage: &msg}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func strPtr(s string) *string { return &s }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
