package pipeline

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	// StatusPartial marks a run that exhausted retries mid-pagination and
	// emitted whatever it had accumulated.
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// RunRecord is the persisted lifecycle of one sync run.
type RunRecord struct {
	ID             string            `json:"id" gorm:"primaryKey;column:id"`
	Status         string            `json:"status" gorm:"column:status"`
	PagesFetched   int               `json:"pages_fetched" gorm:"column:pages_fetched"`
	RecordsFetched int               `json:"records_fetched" gorm:"column:records_fetched"`
	RecordsEmitted int               `json:"records_emitted" gorm:"column:records_emitted"`
	FilteredRows   int               `json:"filtered_rows" gorm:"column:filtered_rows"`
	Error          string            `json:"error,omitempty" gorm:"column:error"`
	Summary        datatypes.JSONMap `json:"summary" gorm:"column:summary"`
	StartedAt      time.Time         `json:"started_at" gorm:"column:started_at"`
	FinishedAt     *time.Time        `json:"finished_at,omitempty" gorm:"column:finished_at"`
	CreatedAt      time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"column:updated_at"`
}

func (RunRecord) TableName() string {
	return "sync_runs"
}
