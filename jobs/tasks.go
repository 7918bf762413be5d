package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconcileScan audits every customer and supplier balance.
	TaskReconcileScan = "ledger:reconcile_scan"
	// TaskIdempotencyCleanup drops expired request keys.
	TaskIdempotencyCleanup = "ledger:idempotency_cleanup"
)

// ReconcileScanPayload is reserved for scan options; the scan currently
// takes none.
type ReconcileScanPayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

// IdempotencyCleanupPayload overrides the configured retention when set.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retentionHours,omitempty"`
}

// NewReconcileScanTask constructs the reconciliation scan task.
func NewReconcileScanTask(payload ReconcileScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileScan, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// NewIdempotencyCleanupTask constructs the key cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.MaxRetry(1)), nil
}

// NewTask builds a known task by type with an empty payload.
func NewTask(taskType string) (*asynq.Task, error) {
	switch taskType {
	case TaskReconcileScan:
		return NewReconcileScanTask(ReconcileScanPayload{})
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(IdempotencyCleanupPayload{})
	default:
		return nil, ErrUnknownTask
	}
}
