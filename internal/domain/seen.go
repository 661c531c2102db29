package domain

import "time"

// SeenDomain is a permanent dedup ledger row.
// Corresponds to seen_domains table. Never mutated or deleted after insert.
type SeenDomain struct {
	DomainName  string    `json:"domain_name"`   // PRIMARY KEY, normalized lowercase
	DropDate    time.Time `json:"drop_date"`     // drop date as first sighted
	TLD         string    `json:"tld"`           // derived TLD (may be empty)
	Source      Source    `json:"source"`        // api | file
	FirstSeenAt time.Time `json:"first_seen_at"` // UTC time of first sighting
}
