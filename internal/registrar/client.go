// Package registrar implements the TPP Wholesale reseller API transport:
// drop-list fetch, order submission and availability checks.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://www.tppwholesale.com.au/api/"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRateLimit   = 2.0 // requests per second
	DefaultRateBurst   = 1
)

// API paths, relative to the base URL.
const (
	dropListPath = "domains/droplist/au"
	registerPath = "domains/register"
	checkPath    = "domains/check/"
)

// Metric endpoint labels.
const (
	endpointDropList = "droplist"
	endpointRegister = "register"
	endpointCheck    = "check"
)

// Credentials authenticate every request.
type Credentials struct {
	APIKey     string
	APISecret  string
	ResellerID string
}

// APIError is returned for a non-2xx response from a read endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status code %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether the status is worth another attempt.
func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client talks to the registrar over HTTPS with JSON bodies.
type Client struct {
	baseURL     *url.URL
	creds       Credentials
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	log         logrus.FieldLogger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for read endpoints.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithRateLimit paces all requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = l.WithField("component", "registrar")
	}
}

// NewClient creates a registrar client. baseURL defaults to DefaultBaseURL.
func NewClient(baseURL string, creds Credentials, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse registrar base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("registrar base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:     u,
		creds:       creds,
		client:      &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateBurst),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		log:         logrus.StandardLogger().WithField("component", "registrar"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// dropListEntry is one element of the drop-list response array.
type dropListEntry struct {
	DomainName string  `json:"domainName"`
	DropDate   apiDate `json:"dropDate"`
	TLD        string  `json:"tld"`
}

// orderResponse is the register endpoint's JSON body.
type orderResponse struct {
	OrderID      string `json:"orderId"`
	DomainName   string `json:"domainName"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	Success      *bool  `json:"success"`
}

// FetchDropList retrieves the .au drop list. Blank names are skipped;
// names are normalized and the TLD is derived from the name.
func (c *Client) FetchDropList(ctx context.Context) ([]domain.CandidateRecord, error) {
	var entries []dropListEntry
	if err := c.getJSON(ctx, endpointDropList, dropListPath, &entries); err != nil {
		return nil, err
	}

	out := make([]domain.CandidateRecord, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.DomainName) == "" {
			continue
		}
		out = append(out, domain.NewCandidate(e.DomainName, e.DropDate.Time))
	}

	c.log.WithFields(logrus.Fields{
		"entries":    len(entries),
		"candidates": len(out),
	}).Info("drop list fetched")
	return out, nil
}

// SubmitOrder sends one registration order. It is never retried.
// A non-2xx status is a business failure reported through the result;
// network and decode faults are returned as errors.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, registerPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.ClientReference != "" {
		httpReq.Header.Set("X-Idempotency-Key", req.ClientReference)
	}

	status, respBody, err := c.do(httpReq, endpointRegister)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return &domain.OrderResult{
			DomainName:   req.DomainName,
			Status:       http.StatusText(status),
			Success:      false,
			ErrorMessage: (&APIError{StatusCode: status, Body: string(respBody)}).Error(),
		}, nil
	}

	var resp orderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	result := &domain.OrderResult{
		OrderID:      resp.OrderID,
		DomainName:   resp.DomainName,
		Status:       resp.Status,
		Success:      resp.Success == nil || *resp.Success,
		ErrorMessage: resp.ErrorMessage,
	}
	if result.DomainName == "" {
		result.DomainName = req.DomainName
	}
	return result, nil
}

// CheckAvailability asks the registrar whether a domain can be registered.
// The response's "available" field may be a JSON bool or a string.
func (c *Client) CheckAvailability(ctx context.Context, domainName string) (bool, error) {
	name := domain.NormalizeDomainName(domainName)
	if name == "" {
		return false, errors.New("check availability: empty domain name")
	}

	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, endpointCheck, checkPath+name, &raw); err != nil {
		return false, err
	}

	for k, v := range raw {
		if strings.EqualFold(k, "available") {
			return parseAvailable(v)
		}
	}
	return false, nil
}

func parseAvailable(v json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return false, fmt.Errorf("failed to parse API response: available is %s", string(v))
	}
	return strings.EqualFold(strings.TrimSpace(s), "true"), nil
}

// getJSON performs a GET with retries and exponential backoff.
// Network errors, 429 and 5xx are retried; other statuses fail immediately.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.WithFields(logrus.Fields{
				"endpoint": endpoint,
				"attempt":  attempt,
				"error":    lastErr,
			}).Warn("retrying registrar request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		status, body, err := c.do(req, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			lastErr = err
			continue
		}

		if status < 200 || status > 299 {
			apiErr := &APIError{StatusCode: status, Body: string(body)}
			if apiErr.retryable() {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse API response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.creds.APIKey)
	req.Header.Set("X-Api-Secret", c.creds.APISecret)
	req.Header.Set("X-Reseller-Id", c.creds.ResellerID)
	return req, nil
}

// do sends the request and reads the whole body.
func (c *Client) do(req *http.Request, endpoint string) (int, []byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		observability.RecordRegistrarRequest(endpoint, 0, time.Since(start).Seconds())
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	observability.RecordRegistrarRequest(endpoint, resp.StatusCode, time.Since(start).Seconds())
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
