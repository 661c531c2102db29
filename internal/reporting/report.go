package reporting

import "time"

// Report summarizes purchase activity over a time window.
type Report struct {
	GeneratedAt time.Time
	WindowStart time.Time
	WindowEnd   time.Time

	// Ledger size at generation time
	SeenDomains int

	Totals StatusCounts

	// Successful purchases, newest first
	Purchases []AttemptRow

	// Failed attempts with their reasons, newest first
	Failures []AttemptRow

	// Attempts still Pending, e.g. after a crash mid-order
	Pending []AttemptRow

	// Runs that started inside the window, newest first. Empty without a run summary store.
	Runs []RunRow
}

// StatusCounts counts attempts by status.
type StatusCounts struct {
	Total   int
	Success int
	Failed  int
	Pending int
}

// SuccessRate returns Success / (Success + Failed), or 0 when nothing finished.
func (c StatusCounts) SuccessRate() float64 {
	done := c.Success + c.Failed
	if done == 0 {
		return 0
	}
	return float64(c.Success) / float64(done)
}

// AttemptRow is one attempt as shown in the report.
type AttemptRow struct {
	ID           int64
	DomainName   string
	TLD          string
	Status       string
	OrderID      string
	ErrorMessage string
	AttemptedAt  time.Time
}

// RunRow is one run summary as shown in the report.
type RunRow struct {
	RunID      string
	Trigger    string
	Status     string
	Selected   int
	Succeeded  int
	Failed     int
	Error      string
	StartedAt  time.Time
	DurationMs int64
}
