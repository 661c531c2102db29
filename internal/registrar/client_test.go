package registrar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

var testCreds = Credentials{APIKey: "key-1", APISecret: "secret-1", ResellerID: "R-9"}

func newTestClient(t *testing.T, server *httptest.Server, opts ...ClientOption) *Client {
	t.Helper()
	base := []ClientOption{
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
		WithRateLimit(0, 0),
	}
	c, err := NewClient(server.URL+"/api", testCreds, append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func assertAuthHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "key-1", r.Header.Get("X-Api-Key"))
	assert.Equal(t, "secret-1", r.Header.Get("X-Api-Secret"))
	assert.Equal(t, "R-9", r.Header.Get("X-Reseller-Id"))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
}

func TestClient_FetchDropList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/domains/droplist/au", r.URL.Path)
		assertAuthHeaders(t, r)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"domainName": " Shop.AU ", "dropDate": "2026-10-14T00:00:00", "tld": ".au"},
			{"domainName": "cafe.com.au", "dropDate": "2026-10-15"},
			{"domainName": "", "dropDate": null},
			{"domainName": "biz.au", "dropDate": "2026-10-14T09:30:00+10:00"}
		]`))
	}))
	defer server.Close()

	got, err := newTestClient(t, server).FetchDropList(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "shop.au", got[0].DomainName)
	assert.Equal(t, ".au", got[0].TLD)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), got[0].DropDate)

	assert.Equal(t, ".com.au", got[1].TLD)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), got[1].DropDate)

	assert.Equal(t, time.Date(2026, 10, 13, 23, 30, 0, 0, time.UTC), got[2].DropDate)
}

func TestClient_FetchDropList_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Write([]byte(`[{"domainName":"shop.au"}]`))
		}
	}))
	defer server.Close()

	got, err := newTestClient(t, server).FetchDropList(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_FetchDropList_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad credentials"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).FetchDropList(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "API returned status code 401: bad credentials", apiErr.Error())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchDropList_MaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server, WithMaxRetries(2)).FetchDropList(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_FetchDropList_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server).FetchDropList(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse API response")
}

func TestClient_SubmitOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/domains/register", r.URL.Path)
		assertAuthHeaders(t, r)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "ref-123", r.Header.Get("X-Idempotency-Key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shop.au", body["domainName"])
		assert.Equal(t, float64(1), body["period"])
		assert.Equal(t, "C-1", body["registrantContactId"])
		assert.Equal(t, "C-1", body["billingContactId"])
		_, hasNS := body["nameservers"]
		assert.False(t, hasNS, "nil nameservers are omitted")
		_, hasRef := body["ClientReference"]
		assert.False(t, hasRef)

		w.Write([]byte(`{"orderId":"ORD-77","domainName":"shop.au","status":"Pending"}`))
	}))
	defer server.Close()

	res, err := newTestClient(t, server).SubmitOrder(context.Background(), domain.OrderRequest{
		DomainName:          "shop.au",
		Period:              1,
		RegistrantContactID: "C-1",
		AdminContactID:      "C-1",
		TechContactID:       "C-1",
		BillingContactID:    "C-1",
		ClientReference:     "ref-123",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ORD-77", res.OrderID)
	assert.Equal(t, "Pending", res.Status)
}

func TestClient_SubmitOrder_ExplicitFailureBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"status":"Rejected","errorMessage":"Domain not available"}`))
	}))
	defer server.Close()

	res, err := newTestClient(t, server).SubmitOrder(context.Background(), domain.OrderRequest{DomainName: "shop.au"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Domain not available", res.ErrorMessage)
	assert.Equal(t, "shop.au", res.DomainName)
}

func TestClient_SubmitOrder_StatusIsBusinessFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream registry timeout"))
	}))
	defer server.Close()

	res, err := newTestClient(t, server).SubmitOrder(context.Background(), domain.OrderRequest{DomainName: "shop.au"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "API returned status code 500: upstream registry timeout", res.ErrorMessage)
	assert.Equal(t, int32(1), calls.Load(), "orders are never retried")
}

func TestClient_SubmitOrder_TransportFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewClient(url, testCreds, WithRateLimit(0, 0), WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.SubmitOrder(context.Background(), domain.OrderRequest{DomainName: "shop.au"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}

func TestClient_CheckAvailability(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"bool true", `{"available": true}`, true},
		{"bool false", `{"available": false}`, false},
		{"string true", `{"Available": "True"}`, true},
		{"string false", `{"available": "false"}`, false},
		{"missing", `{"domain": "shop.au"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/domains/check/shop.au", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := newTestClient(t, server).CheckAvailability(context.Background(), "Shop.AU")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_CheckAvailability_EmptyName(t *testing.T) {
	c, err := NewClient("", testCreds)
	require.NoError(t, err)

	_, err = c.CheckAvailability(context.Background(), "  ")
	assert.Error(t, err)
}

func TestNewClient_BaseURL(t *testing.T) {
	_, err := NewClient("not a url", testCreds)
	assert.Error(t, err)

	c, err := NewClient("https://example.test/api", testCreds)
	require.NoError(t, err)
	assert.Equal(t, "/api/", c.baseURL.Path)

	c, err = NewClient("", testCreds)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL.String())
}

func TestClient_RespectsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server).FetchDropList(ctx)
	assert.Error(t, err)
}
