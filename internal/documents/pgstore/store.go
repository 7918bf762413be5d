// Package pgstore implements the Document Store on PostgreSQL with pgx.
package pgstore

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type queries struct {
	db dbtx
}

// Store implements documents.Store backed by a pgx pool.
type Store struct {
	queries
	pool *pgxpool.Pool
}

var _ documents.Store = (*Store)(nil)

// New constructs the store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

// WithTx runs fn inside one RepeatableRead transaction.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, documents.Tx) error) error {
	err := db.WithTx(ctx, s.pool, func(pgTx pgx.Tx) error {
		return fn(ctx, &tx{queries: queries{db: pgTx}})
	})
	return translate(err)
}

// Snapshot runs fn inside one read-only RepeatableRead transaction.
func (s *Store) Snapshot(ctx context.Context, fn func(context.Context, documents.Reader) error) error {
	err := db.WithReadOnlyTx(ctx, s.pool, func(pgTx pgx.Tx) error {
		return fn(ctx, queries{db: pgTx})
	})
	return translate(err)
}

type tx struct {
	queries
}

var constraintTargets = map[string][2]string{
	"categories_name_key":              {"category", "name"},
	"products_barcode_key":             {"product", "barcode"},
	"customers_name_key":               {"customer", "name"},
	"customers_customer_number_key":    {"customer", "customer_number"},
	"suppliers_name_key":               {"supplier", "name"},
	"invoices_kind_invoice_number_key": {"invoice", "invoice_number"},
}

// translate maps server errors onto the shared error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	code, pgErr := db.PgErrorCode(err)
	switch code {
	case db.CodeUniqueViolation:
		if target, ok := constraintTargets[pgErr.ConstraintName]; ok {
			return shared.NewConflictError(target[0], target[1], "")
		}
		return shared.NewConflictError(strings.TrimSuffix(pgErr.TableName, "s"), "id", "")
	case db.CodeSerializationFailure, db.CodeDeadlockDetected:
		return shared.ErrSerialization
	case db.CodeCheckViolation:
		return shared.NewValidationError(pgErr.ColumnName, pgErr.Message)
	}
	return err
}

// translateDelete reports rows still referenced elsewhere as conflicts.
func translateDelete(err error, entity, id string) error {
	if code, _ := db.PgErrorCode(err); code == db.CodeForeignKeyViolation {
		return shared.NewConflictError(entity, "references", id)
	}
	return translate(err)
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NewNotFoundError(entity, id)
	}
	return translate(err)
}

// conditions accumulates WHERE predicates with positional arguments. A "?" in
// an expression is replaced by the next placeholder.
type conditions struct {
	parts []string
	args  []any
}

func (c *conditions) add(expr string, arg any) {
	c.args = append(c.args, arg)
	c.parts = append(c.parts, strings.Replace(expr, "?", "$"+strconv.Itoa(len(c.args)), 1))
}

func (c *conditions) addSearch(search string, columns ...string) {
	if search == "" {
		return
	}
	c.args = append(c.args, "%"+search+"%")
	placeholder := "$" + strconv.Itoa(len(c.args))
	ors := make([]string, 0, len(columns))
	for _, col := range columns {
		ors = append(ors, col+" ILIKE "+placeholder)
	}
	c.parts = append(c.parts, "("+strings.Join(ors, " OR ")+")")
}

func (c *conditions) where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}

func (c *conditions) paginate(limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		c.args = append(c.args, limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(c.args)))
	}
	if offset > 0 {
		c.args = append(c.args, offset)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(c.args)))
	}
	return b.String()
}
