package models

import "time"

// Event is the envelope published to the event bus for run lifecycle changes.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // sync.started, sync.completed, sync.failed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// RunSummary is the condensed outcome of one sync run, cached for the
// status endpoint and attached to lifecycle events.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	Status         string    `json:"status"`
	PagesFetched   int       `json:"pages_fetched"`
	RecordsFetched int       `json:"records_fetched"`
	RecordsEmitted int       `json:"records_emitted"`
	FilteredRows   int       `json:"filtered_rows"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Error          string    `json:"error,omitempty"`
}
