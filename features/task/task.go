package task

import (
	"context"
	"time"
)

// Task statuses. pending and processing are transient; completed and failed
// are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Task struct {
	ID         string                 `json:"id"`
	BusinessID string                 `json:"business_id"`
	SourceType string                 `json:"source_type"`
	SourceID   string                 `json:"source_id"`
	Status     string                 `json:"status"`
	Stage      string                 `json:"stage,omitempty"`
	RetryCount int                    `json:"retry_count"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Result     map[string]interface{} `json:"result,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Terminal reports whether the task has reached a final state.
func (t *Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

type Repository interface {
	Save(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	UpdateProgress(ctx context.Context, id, stage string, retry int, details map[string]interface{}) error
	Complete(ctx context.Context, id string, result map[string]interface{}) error
	Fail(ctx context.Context, id string, result map[string]interface{}) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}
