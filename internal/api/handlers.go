package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/LuckyB33f/domainAgent/internal/agent"
	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/reporting"
	"github.com/LuckyB33f/domainAgent/internal/storage"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, errorResponse{Error: msg})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	agent.Status
	SeenDomains int       `json:"seen_domains"`
	StartedAt   time.Time `json:"started_at"`
}

func (s *Server) status(c echo.Context) error {
	resp := statusResponse{
		Status:    s.opts.Job.Status(),
		StartedAt: s.started,
	}
	n, err := s.opts.Seen.Count(c.Request().Context())
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	resp.SeenDomains = n
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) triggerRun(c echo.Context) error {
	runID, err := s.opts.Job.Start(s.opts.BaseContext, agent.TriggerManual)
	if errors.Is(err, agent.ErrRunInProgress) {
		return errorJSON(c, http.StatusConflict, err.Error())
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]string{"run_id": runID})
}

func (s *Server) listRuns(c echo.Context) error {
	if s.opts.Summaries == nil {
		return errorJSON(c, http.StatusNotImplemented, "run summaries are not configured")
	}
	limit, err := parseLimit(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	runs, err := s.opts.Summaries.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []*domain.RunSummary{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) listAttempts(c echo.Context) error {
	attempts, code, err := s.queryAttempts(c)
	if err != nil {
		return errorJSON(c, code, err.Error())
	}
	return c.JSON(http.StatusOK, attempts)
}

func (s *Server) attemptsCSV(c echo.Context) error {
	attempts, code, err := s.queryAttempts(c)
	if err != nil {
		return errorJSON(c, code, err.Error())
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="purchase_attempts.csv"`)
	res.WriteHeader(http.StatusOK)
	return reporting.WriteAttemptsCSV(res, attempts)
}

// queryAttempts applies the status and limit query parameters.
// On error it also returns the HTTP status to answer with.
func (s *Server) queryAttempts(c echo.Context) ([]*domain.PurchaseAttempt, int, error) {
	limit, err := parseLimit(c)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	ctx := c.Request().Context()

	var attempts []*domain.PurchaseAttempt
	if raw := c.QueryParam("status"); raw != "" {
		status, ok := domain.ParsePurchaseStatus(raw)
		if !ok {
			return nil, http.StatusBadRequest, fmt.Errorf("unknown status %q", raw)
		}
		attempts, err = s.opts.Attempts.ListByStatus(ctx, status)
		if len(attempts) > limit {
			attempts = attempts[:limit]
		}
	} else {
		attempts, err = s.opts.Attempts.List(ctx, limit)
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if attempts == nil {
		attempts = []*domain.PurchaseAttempt{}
	}
	return attempts, http.StatusOK, nil
}

type domainResponse struct {
	DomainName    string                  `json:"domain_name"`
	Seen          *domain.SeenDomain      `json:"seen,omitempty"`
	LatestAttempt *domain.PurchaseAttempt `json:"latest_attempt,omitempty"`
}

func (s *Server) getDomain(c echo.Context) error {
	name := domain.NormalizeDomainName(c.Param("name"))
	ctx := c.Request().Context()
	resp := domainResponse{DomainName: name}

	seen, err := s.opts.Seen.GetByName(ctx, name)
	switch {
	case err == nil:
		resp.Seen = seen
	case !errors.Is(err, storage.ErrNotFound):
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	latest, err := s.opts.Attempts.GetLatestByDomain(ctx, name)
	switch {
	case err == nil:
		resp.LatestAttempt = latest
	case !errors.Is(err, storage.ErrNotFound):
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	if resp.Seen == nil && resp.LatestAttempt == nil {
		return errorJSON(c, http.StatusNotFound, "domain not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) availability(c echo.Context) error {
	if s.opts.Availability == nil {
		return errorJSON(c, http.StatusNotImplemented, "availability checks are not configured")
	}
	name := domain.NormalizeDomainName(c.Param("name"))

	ok, err := s.opts.Availability.CheckAvailability(c.Request().Context(), name)
	if err != nil {
		return errorJSON(c, http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"domain_name": name,
		"available":   ok,
	})
}

func (s *Server) whois(c echo.Context) error {
	if s.opts.Whois == nil {
		return errorJSON(c, http.StatusNotImplemented, "whois lookups are not configured")
	}

	res, err := s.opts.Whois.Check(c.Request().Context(), c.Param("name"))
	if err != nil {
		if res == nil {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusBadGateway, res)
	}
	if c.QueryParam("raw") != "true" {
		res.Raw = ""
	}
	return c.JSON(http.StatusOK, res)
}

type importResponse struct {
	Rows     int      `json:"rows"`
	Skipped  int      `json:"skipped"`
	Admitted []string `json:"admitted"`
}

// importDropList accepts either a raw CSV body or a multipart "file" field.
func (s *Server) importDropList(c echo.Context) error {
	if s.opts.Importer == nil {
		return errorJSON(c, http.StatusNotImplemented, "csv import is not configured")
	}
	body := c.Request().Body

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "multipart upload needs a \"file\" field")
		}
		f, err := fh.Open()
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		defer f.Close()
		body = f
	}

	res, err := s.opts.Importer.Import(c.Request().Context(), body)
	if err != nil {
		return errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	}

	resp := importResponse{Rows: res.Rows, Skipped: res.Skipped, Admitted: make([]string, 0, len(res.Admitted))}
	for _, cand := range res.Admitted {
		resp.Admitted = append(resp.Admitted, cand.DomainName)
	}
	return c.JSON(http.StatusOK, resp)
}

func parseLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
