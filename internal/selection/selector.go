// Package selection turns a drop list into a ranked, capped purchase set.
// Everything here is pure: no I/O, no clock, no globals.
package selection

import (
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

// Score weights.
const (
	maxLengthScore = 100
	keywordBonus   = 50
	bareAUBonus    = 20
	bareAUTLD      = ".au"
)

// Selector applies a fixed Config to candidate lists.
type Selector struct {
	minLen   int
	maxLen   int
	limit    int
	tlds     []string // lowercase
	priority []string // lowercase, distinct, non-empty
	exclude  []string // lowercase, non-empty
}

// New creates a Selector. The config slices are copied, so later changes
// by the caller have no effect.
func New(cfg Config) *Selector {
	return &Selector{
		minLen:   cfg.MinDomainLength,
		maxLen:   cfg.MaxDomainLength,
		limit:    cfg.MaxDomainsPerDay,
		tlds:     normalizeList(cfg.AllowedTLDs, false),
		priority: normalizeList(cfg.PriorityKeywords, true),
		exclude:  normalizeList(cfg.ExcludeKeywords, false),
	}
}

// Scored pairs a candidate with its priority.
type Scored struct {
	Candidate domain.CandidateRecord
	Score     int
}

// Select returns the candidates worth buying, highest score first,
// truncated to MaxDomainsPerDay. Equal scores keep their input order.
func (s *Selector) Select(candidates []domain.CandidateRecord) []domain.CandidateRecord {
	ranked := s.Rank(candidates)
	if len(ranked) == 0 {
		return []domain.CandidateRecord{}
	}

	n := len(ranked)
	if s.limit < n {
		n = max(s.limit, 0)
	}

	out := make([]domain.CandidateRecord, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].Candidate
	}
	return out
}

// Rank filters candidates and stable-sorts the survivors by descending score.
// It does not apply the daily cap.
func (s *Selector) Rank(candidates []domain.CandidateRecord) []Scored {
	// Pass 1: filter
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if !s.Accept(c) {
			continue
		}
		scored = append(scored, Scored{Candidate: c, Score: s.Score(c)})
	}

	// Pass 2: stable sort
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Accept reports whether a candidate passes every filter rule.
func (s *Selector) Accept(c domain.CandidateRecord) bool {
	name := strings.ToLower(strings.TrimSpace(c.DomainName))
	if name == "" {
		return false
	}

	n := utf8.RuneCountInString(domain.LeftLabel(name))
	if n < s.minLen || n > s.maxLen {
		return false
	}

	if len(s.tlds) > 0 && !slices.Contains(s.tlds, domain.DeriveTLD(name)) {
		return false
	}

	for _, kw := range s.exclude {
		if strings.Contains(name, kw) {
			return false
		}
	}
	return true
}

// Score computes the additive priority of a candidate:
// shorter left label, more priority keywords and a bare .au TLD rank higher.
func (s *Selector) Score(c domain.CandidateRecord) int {
	name := strings.ToLower(strings.TrimSpace(c.DomainName))

	score := maxLengthScore - min(utf8.RuneCountInString(domain.LeftLabel(name)), maxLengthScore)

	for _, kw := range s.priority {
		if strings.Contains(name, kw) {
			score += keywordBonus
		}
	}

	if domain.DeriveTLD(name) == bareAUTLD {
		score += bareAUBonus
	}
	return score
}

// normalizeList lowercases and trims entries, dropping blanks.
// Blank keywords would match every name.
func normalizeList(in []string, distinct bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if distinct {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}
