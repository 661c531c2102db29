// Package lookup runs WHOIS diagnostics for drop-list names. Results are
// informational only; selection never consults them.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/likexian/whois"
	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

// Verdict is the classification of a WHOIS response.
type Verdict string

const (
	VerdictAvailable Verdict = "available"
	VerdictTaken     Verdict = "taken"
	VerdictReserved  Verdict = "reserved"
	VerdictUnknown   Verdict = "unknown"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultConcurrency = 5
)

// Patterns for a registered name. Checked first: they are more reliable.
var takenPatterns = []string{
	"registrar:",
	"registrant:",
	"registrant contact id:",
	"creation date:",
	"created:",
	"registry expiry date:",
	"expiration date:",
	"last modified:",
	"name server:",
	"nameserver:",
	"nserver:",
	"dnssec:",
	"domain status:",
	"status: ok",
	"servertransferprohibited",
}

// Patterns for an unregistered name.
var availablePatterns = []string{
	"no match for",
	"not found",
	"no entries found",
	"no data found",
	"status: free",
	"status: available",
	"no object found",
	"object does not exist",
	"is available for registration",
	"domain is available",
	"no such domain",
	"domain name has not been registered",
}

var reservedPatterns = []string{
	"this name is reserved",
	"reserved name",
	"status: reserved",
}

// ErrEmptyDomain is returned for a blank name.
var ErrEmptyDomain = errors.New("domain name is empty")

// Result is one WHOIS diagnostic.
type Result struct {
	DomainName string    `json:"domain_name"`
	Verdict    Verdict   `json:"verdict"`
	Matched    string    `json:"matched,omitempty"` // pattern that decided the verdict
	Error      string    `json:"error,omitempty"`
	Raw        string    `json:"raw,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// LookupFunc performs a raw WHOIS query.
type LookupFunc func(domain string) (string, error)

// Checker classifies WHOIS responses.
type Checker struct {
	lookup      LookupFunc
	timeout     time.Duration
	concurrency int
	log         logrus.FieldLogger
	now         func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithLookupFunc replaces the WHOIS client, e.g. in tests.
func WithLookupFunc(fn LookupFunc) Option {
	return func(c *Checker) {
		c.lookup = fn
	}
}

// WithTimeout bounds a single query.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithConcurrency bounds parallel queries in CheckBulk.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewChecker creates a checker backed by github.com/likexian/whois.
func NewChecker(logger logrus.FieldLogger, opts ...Option) *Checker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Checker{
		lookup:      func(d string) (string, error) { return whois.Whois(d) },
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		log:         logger.WithField("component", "whois"),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check queries WHOIS for one name. A failed query yields VerdictUnknown and
// a non-nil error.
func (c *Checker) Check(ctx context.Context, name string) (*Result, error) {
	name = domain.NormalizeDomainName(name)
	if name == "" {
		return nil, ErrEmptyDomain
	}

	res := &Result{DomainName: name, Verdict: VerdictUnknown, CheckedAt: c.now()}

	raw, err := c.query(ctx, name)
	if err != nil {
		res.Error = err.Error()
		c.log.WithField("domain", name).WithError(err).Warn("whois lookup failed")
		return res, fmt.Errorf("whois %s: %w", name, err)
	}

	res.Raw = raw
	res.Verdict, res.Matched = Classify(raw)
	c.log.WithFields(logrus.Fields{"domain": name, "verdict": res.Verdict}).Debug("whois lookup")
	return res, nil
}

// query runs the blocking WHOIS call under the checker timeout.
// The underlying client does not take a context, so an abandoned call
// finishes in the background.
func (c *Checker) query(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type reply struct {
		raw string
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		raw, err := c.lookup(name)
		ch <- reply{raw, err}
	}()

	select {
	case r := <-ch:
		return r.raw, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CheckBulk checks names concurrently and returns results in input order.
// Lookup failures are reported in Result.Error.
func (c *Checker) CheckBulk(ctx context.Context, names []string) []*Result {
	results := make([]*Result, len(names))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(idx int, n string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := c.Check(ctx, n)
			if res == nil {
				res = &Result{DomainName: n, Verdict: VerdictUnknown, Error: err.Error(), CheckedAt: c.now()}
			}
			results[idx] = res
		}(i, name)
	}

	wg.Wait()
	return results
}

// Classify maps a raw WHOIS response to a verdict and the pattern that decided it.
func Classify(raw string) (Verdict, string) {
	lower := strings.ToLower(raw)
	if strings.TrimSpace(lower) == "" {
		return VerdictUnknown, ""
	}

	for _, p := range reservedPatterns {
		if strings.Contains(lower, p) {
			return VerdictReserved, p
		}
	}
	for _, p := range takenPatterns {
		if strings.Contains(lower, p) {
			return VerdictTaken, p
		}
	}
	for _, p := range availablePatterns {
		if strings.Contains(lower, p) {
			return VerdictAvailable, p
		}
	}
	return VerdictUnknown, ""
}
