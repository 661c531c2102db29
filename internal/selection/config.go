package selection

// Default selection limits.
const (
	DefaultMaxDomainsPerDay = 10
	DefaultMinDomainLength  = 3
	DefaultMaxDomainLength  = 63
)

// Config holds the business rules applied to every candidate.
// An empty AllowedTLDs or keyword list disables that rule.
type Config struct {
	AllowedTLDs      []string
	MaxDomainsPerDay int
	MinDomainLength  int
	MaxDomainLength  int
	PriorityKeywords []string
	ExcludeKeywords  []string
}

// DefaultConfig returns the default rules: .au only, 10 per day, labels of 3-63 characters.
func DefaultConfig() Config {
	return Config{
		AllowedTLDs:      []string{".au"},
		MaxDomainsPerDay: DefaultMaxDomainsPerDay,
		MinDomainLength:  DefaultMinDomainLength,
		MaxDomainLength:  DefaultMaxDomainLength,
	}
}
