package domain

import "time"

// RunStatus is the terminal state of one purchase run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed" // all selected items processed
	RunStatusCancelled RunStatus = "cancelled" // stopped between items
	RunStatusFailed    RunStatus = "failed"    // whole-run fault, no items processed
)

// RunSummary aggregates one purchase run for analytics.
// Corresponds to run_summaries table in ClickHouse.
type RunSummary struct {
	RunID      string    `json:"run_id"`          // uuid
	Trigger    string    `json:"trigger"`         // schedule | manual | startup | cli
	Status     RunStatus `json:"status"`          // completed | cancelled | failed
	Fetched    int       `json:"fetched"`         // drop-list size
	Admitted   int       `json:"admitted"`        // newly seen candidates
	Selected   int       `json:"selected"`        // candidates after filter/rank/cap
	Succeeded  int       `json:"succeeded"`       // successful orders
	Failed     int       `json:"failed"`          // failed orders
	Error      string    `json:"error,omitempty"` // whole-run fault message, empty otherwise
	StartedAt  time.Time `json:"started_at"`      // UTC
	FinishedAt time.Time `json:"finished_at"`     // UTC
	DurationMs int64     `json:"duration_ms"`     // FinishedAt - StartedAt
}
