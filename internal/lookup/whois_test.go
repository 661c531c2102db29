package lookup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registeredAU = `Domain Name: shop.com.au
Registry Domain ID: D407400000000000000-AU
Registrar WHOIS Server: whois.auda.org.au
Last Modified: 2026-03-02T01:00:00Z
Registrar Name: Example Registrar
Status: serverRenewProhibited
Registrant Contact ID: C0000000-AU
Name Server: ns1.example.net.au
DNSSEC: unsigned`

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		verdict Verdict
	}{
		{"registered au", registeredAU, VerdictTaken},
		{"au not found", "NOT FOUND", VerdictAvailable},
		{"com no match", `No match for "FREE-NAME.COM".`, VerdictAvailable},
		{"reserved", "This name is reserved by the Registry", VerdictReserved},
		{"empty", "  \n", VerdictUnknown},
		{"unrecognized", "rate limit exceeded", VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, matched := Classify(tt.raw)
			assert.Equal(t, tt.verdict, verdict)
			if tt.verdict != VerdictUnknown {
				assert.NotEmpty(t, matched)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	var queried string
	c := NewChecker(nil, WithLookupFunc(func(d string) (string, error) {
		queried = d
		return "NOT FOUND", nil
	}))

	res, err := c.Check(context.Background(), "  Free.COM.au ")
	require.NoError(t, err)
	assert.Equal(t, "free.com.au", queried)
	assert.Equal(t, "free.com.au", res.DomainName)
	assert.Equal(t, VerdictAvailable, res.Verdict)
	assert.Equal(t, "not found", res.Matched)
	assert.False(t, res.CheckedAt.IsZero())
}

func TestCheck_Errors(t *testing.T) {
	c := NewChecker(nil, WithLookupFunc(func(string) (string, error) {
		return "", errors.New("connection refused")
	}))

	_, err := c.Check(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyDomain)

	res, err := c.Check(context.Background(), "shop.au")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, VerdictUnknown, res.Verdict)
	assert.Contains(t, res.Error, "connection refused")
}

func TestCheck_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	c := NewChecker(nil,
		WithTimeout(20*time.Millisecond),
		WithLookupFunc(func(string) (string, error) {
			<-release
			return "", nil
		}),
	)

	_, err := c.Check(context.Background(), "slow.au")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCheckBulk(t *testing.T) {
	var inFlight, peak int32
	c := NewChecker(nil,
		WithConcurrency(2),
		WithLookupFunc(func(d string) (string, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)

			if d == "taken.au" {
				return registeredAU, nil
			}
			return "NOT FOUND", nil
		}),
	)

	names := []string{"a.au", "taken.au", "c.au", "d.au", ""}
	results := c.CheckBulk(context.Background(), names)

	require.Len(t, results, len(names))
	assert.Equal(t, VerdictAvailable, results[0].Verdict)
	assert.Equal(t, VerdictTaken, results[1].Verdict)
	assert.Equal(t, "c.au", results[2].DomainName)
	assert.Equal(t, VerdictUnknown, results[4].Verdict)
	assert.NotEmpty(t, results[4].Error)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
