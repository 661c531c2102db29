package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeOrderReference computes a deterministic client reference for one
// purchase attempt. It is sent to the registrar as an idempotency key so a
// resubmitted request for the same attempt cannot create a second order.
// Formula: base58(SHA256(domain_name|attempt_id)).
func ComputeOrderReference(domainName string, attemptID int64) string {
	data := fmt.Sprintf("%s|%d", domainName, attemptID)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
