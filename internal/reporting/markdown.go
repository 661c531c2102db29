package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Domain Purchase Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n", r.WindowStart.Format(time.RFC3339), r.WindowEnd.Format(time.RFC3339)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Attempts | %d |\n", r.Totals.Total))
	sb.WriteString(fmt.Sprintf("| Success | %d |\n", r.Totals.Success))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", r.Totals.Failed))
	sb.WriteString(fmt.Sprintf("| Pending | %d |\n", r.Totals.Pending))
	sb.WriteString(fmt.Sprintf("| Success Rate | %.1f%% |\n", r.Totals.SuccessRate()*100))
	sb.WriteString(fmt.Sprintf("| Seen Domains (all time) | %d |\n", r.SeenDomains))
	sb.WriteString("\n")

	sb.WriteString("## Purchased\n\n")
	if len(r.Purchases) > 0 {
		sb.WriteString("| Domain | Order ID | Attempted |\n")
		sb.WriteString("|--------|----------|-----------|\n")
		for _, p := range r.Purchases {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", p.DomainName, cell(p.OrderID), p.AttemptedAt.Format(time.RFC3339)))
		}
	} else {
		sb.WriteString("No domains purchased.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Failed\n\n")
	if len(r.Failures) > 0 {
		sb.WriteString("| Domain | Reason | Attempted |\n")
		sb.WriteString("|--------|--------|-----------|\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", f.DomainName, cell(f.ErrorMessage), f.AttemptedAt.Format(time.RFC3339)))
		}
	} else {
		sb.WriteString("No failed attempts.\n")
	}
	sb.WriteString("\n")

	if len(r.Pending) > 0 {
		sb.WriteString("## Pending\n\n")
		sb.WriteString("Attempts below never received a registrar answer and need manual review.\n\n")
		for _, p := range r.Pending {
			sb.WriteString(fmt.Sprintf("- %s (attempt %d, %s)\n", p.DomainName, p.ID, p.AttemptedAt.Format(time.RFC3339)))
		}
		sb.WriteString("\n")
	}

	if len(r.Runs) > 0 {
		sb.WriteString("## Runs\n\n")
		sb.WriteString("| Run | Trigger | Status | Selected | Succeeded | Failed | Duration (ms) | Error |\n")
		sb.WriteString("|-----|---------|--------|----------|-----------|--------|---------------|-------|\n")
		for _, run := range r.Runs {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %d | %d | %s |\n",
				run.RunID, run.Trigger, run.Status, run.Selected, run.Succeeded, run.Failed, run.DurationMs, cell(run.Error)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// cell escapes a value for a Markdown table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
