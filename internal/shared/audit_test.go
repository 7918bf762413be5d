package shared

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedExec struct {
	sql  string
	args []any
}

func (c *capturedExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditLoggerFillsActorAndTime(t *testing.T) {
	db := &capturedExec{}
	logger := NewAuditLogger(db)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("AST", 3*3600))
	logger.now = func() time.Time { return at }

	ctx := ContextWithActor(context.Background(), "cashier-2")
	require.NoError(t, logger.Record(ctx, AuditLog{Action: "cancel", Entity: "sale", EntityID: "s1"}))

	require.Len(t, db.args, 6)
	assert.Equal(t, "cashier-2", db.args[0])
	assert.Equal(t, []byte("{}"), db.args[4])
	assert.Equal(t, at.UTC(), db.args[5])
	assert.Contains(t, db.sql, "audit_logs")
}

func TestAuditLoggerRejectsIncompleteEntries(t *testing.T) {
	logger := NewAuditLogger(&capturedExec{})
	err := logger.Record(context.Background(), AuditLog{Action: "create", Entity: "sale"})
	assert.ErrorIs(t, err, ErrValidation)

	var missing *AuditLogger
	assert.Error(t, missing.Record(context.Background(), AuditLog{}))
}
