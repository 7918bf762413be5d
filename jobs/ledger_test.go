package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/reconciliation"
)

type jobObserver struct {
	calls []string
}

func (o *jobObserver) ObserveJob(task, status string) {
	o.calls = append(o.calls, task+":"+status)
}

type fakeScanner struct {
	reports []reconciliation.Report
	err     error
	calls   int
}

func (s *fakeScanner) Scan(context.Context) ([]reconciliation.Report, error) {
	s.calls++
	return s.reports, s.err
}

type fakeCleaner struct {
	retention time.Duration
	removed   int64
	err       error
}

func (c *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	c.retention = olderThan
	return c.removed, c.err
}

func TestReconcileScanJob(t *testing.T) {
	scanner := &fakeScanner{reports: []reconciliation.Report{{
		Kind:    reconciliation.PartyCustomer,
		Summary: reconciliation.Summary{Parties: 3, Drifted: 1, TotalDrift: decimal.NewFromInt(10)},
	}}}
	obs := &jobObserver{}
	job := &ReconcileScanJob{Scanner: scanner, Observer: obs}

	task, err := NewReconcileScanTask(ReconcileScanPayload{RequestedBy: "cli"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, scanner.calls)

	scanner.err = errors.New("store down")
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, []string{"ledger:reconcile_scan:success", "ledger:reconcile_scan:failure"}, obs.calls)
}

func TestReconcileScanJobRejectsBadPayload(t *testing.T) {
	job := &ReconcileScanJob{Scanner: &fakeScanner{}}
	err := job.Handle(context.Background(), asynq.NewTask(TaskReconcileScan, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIdempotencyCleanupJobRetention(t *testing.T) {
	cleaner := &fakeCleaner{removed: 4}
	obs := &jobObserver{}
	job := &IdempotencyCleanupJob{Cleaner: cleaner, Retention: 24 * time.Hour, Observer: obs}

	task, err := NewIdempotencyCleanupTask(IdempotencyCleanupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 24*time.Hour, cleaner.retention)

	task, err = NewIdempotencyCleanupTask(IdempotencyCleanupPayload{RetentionHours: 6})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 6*time.Hour, cleaner.retention)

	job.Retention = 0
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, 72*time.Hour, cleaner.retention)
	assert.Len(t, obs.calls, 3)
}

func TestNewTaskRejectsUnknownType(t *testing.T) {
	_, err := NewTask("mail:send")
	assert.ErrorIs(t, err, ErrUnknownTask)

	task, err := NewTask(TaskIdempotencyCleanup)
	require.NoError(t, err)
	assert.Equal(t, TaskIdempotencyCleanup, task.Type())
}

func TestClientEnqueuesOnDefaultQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	info, err := client.Enqueue(context.Background(), TaskReconcileScan)
	require.NoError(t, err)
	assert.Equal(t, QueueDefault, info.Queue)
	assert.Equal(t, TaskReconcileScan, info.Type)

	_, err = client.Enqueue(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestServeMuxSkipsIncompleteHandlers(t *testing.T) {
	called := false
	mux := NewServeMux([]TaskHandler{
		{Type: TaskReconcileScan, Handler: func(context.Context, *asynq.Task) error { called = true; return nil }},
		{Type: "", Handler: func(context.Context, *asynq.Task) error { return nil }},
		{Type: TaskIdempotencyCleanup},
	})
	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(TaskReconcileScan, nil)))
	assert.True(t, called)
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"scheduled":0,"archived":0,"failedToday":0,"paused":false}`, rec.Body.String())
}
