package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/reconciliation"
)

// ErrUnknownTask is returned for task types the worker does not serve.
var ErrUnknownTask = errors.New("jobs: unknown task type")

// Observer records job outcomes.
type Observer interface {
	ObserveJob(task, status string)
}

// Scanner runs a full balance audit.
type Scanner interface {
	Scan(ctx context.Context) ([]reconciliation.Report, error)
}

// KeyCleaner drops idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

func observe(o Observer, task string, err error) error {
	if o == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	o.ObserveJob(task, status)
	return err
}

// ReconcileScanJob audits every party and logs drift. It never corrects
// balances.
type ReconcileScanJob struct {
	Scanner  Scanner
	Observer Observer
	Logger   *slog.Logger
}

// Handle executes the scan.
func (j *ReconcileScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Scanner == nil {
		return errors.New("reconcile scan: handler not configured")
	}
	var payload ReconcileScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return observe(j.Observer, TaskReconcileScan, asynq.SkipRetry)
		}
	}
	logger := j.logger()
	start := time.Now()
	reports, err := j.Scanner.Scan(ctx)
	if err != nil {
		logger.Error("reconcile scan failed", slog.Any("error", err))
		return observe(j.Observer, TaskReconcileScan, err)
	}
	for _, report := range reports {
		logger.Info("reconcile scan complete",
			slog.String("party", string(report.Kind)),
			slog.Int("parties", report.Summary.Parties),
			slog.Int("drifted", report.Summary.Drifted),
			slog.String("total_drift", report.Summary.TotalDrift.StringFixed(2)),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("requested_by", payload.RequestedBy))
	}
	return observe(j.Observer, TaskReconcileScan, nil)
}

func (j *ReconcileScanJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger.With(slog.String("job", TaskReconcileScan))
}

// IdempotencyCleanupJob expires stale request keys.
type IdempotencyCleanupJob struct {
	Cleaner   KeyCleaner
	Retention time.Duration
	Observer  Observer
	Logger    *slog.Logger
}

// Handle executes the cleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cleaner == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	retention := j.Retention
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return observe(j.Observer, TaskIdempotencyCleanup, asynq.SkipRetry)
		}
	}
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	if retention <= 0 {
		retention = 72 * time.Hour
	}
	removed, err := j.Cleaner.Cleanup(ctx, retention)
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err != nil {
		logger.Error("idempotency cleanup failed", slog.Any("error", err))
		return observe(j.Observer, TaskIdempotencyCleanup, err)
	}
	logger.Info("idempotency cleanup complete", slog.Int64("removed", removed), slog.Duration("retention", retention))
	return observe(j.Observer, TaskIdempotencyCleanup, nil)
}
