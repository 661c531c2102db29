package domain

import (
	"strings"
	"time"
)

// CandidateRecord represents a drop-list entry being evaluated for purchase.
// Identity is DomainName only; uniqueness is enforced by the seen ledger.
type CandidateRecord struct {
	DomainName string    // normalized lowercase, non-empty once ingested
	DropDate   time.Time // date the registry releases the name
	TLD        string    // derived from DomainName, may be empty
}

// NewCandidate builds a CandidateRecord with a normalized name and derived TLD.
func NewCandidate(name string, dropDate time.Time) CandidateRecord {
	n := NormalizeDomainName(name)
	return CandidateRecord{
		DomainName: n,
		DropDate:   dropDate,
		TLD:        DeriveTLD(n),
	}
}

// NormalizeDomainName trims surrounding whitespace and lowercases the name.
func NormalizeDomainName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DeriveTLD returns everything from the first dot onward.
// "example.com.au" -> ".com.au"; names without a dot have no TLD.
func DeriveTLD(name string) string {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i:]
}

// LeftLabel returns the substring before the first dot.
func LeftLabel(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
