package selection

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

// genDomainName produces names with 0-15 character labels over a few TLDs,
// sometimes upper-cased, sometimes carrying a priority keyword.
func genDomainName() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 15),
		gen.OneConstOf(".au", ".com.au", ".net.au", ".com", ""),
		gen.Bool(),
		gen.Bool(),
	).Map(func(v []interface{}) string {
		label := strings.Repeat("q", v[0].(int))
		if v[3].(bool) && len(label) >= 3 {
			label = "ace" + label[3:]
		}
		name := label + v[1].(string)
		if v[2].(bool) {
			name = strings.ToUpper(name)
		}
		return name
	})
}

func toCandidates(ns []string) []domain.CandidateRecord {
	out := make([]domain.CandidateRecord, len(ns))
	for i, n := range ns {
		// DropDate carries the input position so ordering can be checked.
		out[i] = domain.CandidateRecord{DomainName: n, DropDate: dropDay.AddDate(0, 0, i)}
	}
	return out
}

func TestSelect_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("output never exceeds the daily cap and keeps every survivor under it", prop.ForAll(
		func(ns []string, limit, minLen, span int) bool {
			sel := New(Config{
				AllowedTLDs:      []string{".au", ".com.au"},
				MaxDomainsPerDay: limit,
				MinDomainLength:  minLen,
				MaxDomainLength:  minLen + span,
			})
			cs := toCandidates(ns)
			out := sel.Select(cs)
			survivors := len(sel.Rank(cs))

			if len(out) > limit {
				return false
			}
			if survivors < limit {
				return len(out) == survivors
			}
			return len(out) == limit
		},
		gen.SliceOf(genDomainName()),
		gen.IntRange(0, 12),
		gen.IntRange(1, 6),
		gen.IntRange(0, 8),
	))

	properties.Property("left labels outside the length bound never appear", prop.ForAll(
		func(ns []string, minLen, span int) bool {
			maxLen := minLen + span
			sel := New(Config{
				MaxDomainsPerDay: len(ns),
				MinDomainLength:  minLen,
				MaxDomainLength:  maxLen,
			})
			for _, c := range sel.Select(toCandidates(ns)) {
				n := utf8.RuneCountInString(domain.LeftLabel(c.DomainName))
				if n < minLen || n > maxLen {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genDomainName()),
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.Property("scores are non-increasing and ties keep input order", prop.ForAll(
		func(ns []string) bool {
			sel := New(Config{
				MaxDomainsPerDay: len(ns),
				MinDomainLength:  1,
				MaxDomainLength:  63,
				PriorityKeywords: []string{"ace"},
			})
			out := sel.Select(toCandidates(ns))
			for i := 1; i < len(out); i++ {
				prev, cur := sel.Score(out[i-1]), sel.Score(out[i])
				if cur > prev {
					return false
				}
				if cur == prev && !out[i-1].DropDate.Before(out[i].DropDate) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genDomainName()),
	))

	properties.Property("selection is deterministic", prop.ForAll(
		func(ns []string) bool {
			sel := New(DefaultConfig())
			cs := toCandidates(ns)
			a, b := sel.Select(cs), sel.Select(cs)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i].DomainName != b[i].DomainName || !a[i].DropDate.Equal(b[i].DropDate) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genDomainName()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
