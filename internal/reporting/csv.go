package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/LuckyB33f/domainAgent/internal/domain"
)

var attemptCSVHeader = []string{
	"id", "domain_name", "tld", "status", "order_id", "error_message", "attempted_at", "updated_at",
}

// WriteAttemptsCSV writes attempts as CSV with a header row.
// Error messages may contain commas and quotes, so fields are quoted as needed.
func WriteAttemptsCSV(w io.Writer, attempts []*domain.PurchaseAttempt) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attemptCSVHeader); err != nil {
		return err
	}
	for _, a := range attempts {
		if err := cw.Write([]string{
			strconv.FormatInt(a.ID, 10),
			a.DomainName,
			a.TLD,
			string(a.Status),
			deref(a.OrderID),
			deref(a.ErrorMessage),
			a.AttemptedAt.UTC().Format(time.RFC3339),
			a.UpdatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderAttemptsCSV renders attempts as a CSV string.
func RenderAttemptsCSV(attempts []*domain.PurchaseAttempt) string {
	var sb strings.Builder
	_ = WriteAttemptsCSV(&sb, attempts) // strings.Builder never fails
	return sb.String()
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
