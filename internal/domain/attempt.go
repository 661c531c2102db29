package domain

import (
	"strings"
	"time"
)

// PurchaseStatus is the lifecycle state of a purchase attempt.
type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "Pending"
	PurchaseStatusSuccess PurchaseStatus = "Success"
	PurchaseStatusFailed  PurchaseStatus = "Failed"
)

// String returns the string representation of PurchaseStatus.
func (s PurchaseStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value.
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusSuccess, PurchaseStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseStatusSuccess || s == PurchaseStatusFailed
}

// ParsePurchaseStatus matches a status name case-insensitively.
func ParsePurchaseStatus(v string) (PurchaseStatus, bool) {
	for _, s := range []PurchaseStatus{PurchaseStatusPending, PurchaseStatusSuccess, PurchaseStatusFailed} {
		if strings.EqualFold(strings.TrimSpace(v), string(s)) {
			return s, true
		}
	}
	return "", false
}

// PurchaseAttempt records one order submission for a domain.
// Corresponds to purchase_attempts table. A domain may have many attempts;
// each attempt moves Pending -> Success|Failed exactly once.
type PurchaseAttempt struct {
	ID           int64          `json:"id"`                      // PRIMARY KEY, assigned by the store
	DomainName   string         `json:"domain_name"`             // domain being ordered
	TLD          string         `json:"tld"`                     // derived TLD
	OrderID      *string        `json:"order_id,omitempty"`      // registrar order id (Success only)
	Status       PurchaseStatus `json:"status"`                  // Pending | Success | Failed
	ErrorMessage *string        `json:"error_message,omitempty"` // failure reason (Failed only)
	AttemptedAt  time.Time      `json:"attempted_at"`            // when submission began
	CreatedAt    time.Time      `json:"created_at"`              // record creation time
	UpdatedAt    time.Time      `json:"updated_at"`              // last status transition
}
