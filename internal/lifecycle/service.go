// Package lifecycle is the Document Lifecycle Manager. Every operation runs
// as one unit of work that moves stock, party balances and the cashbox
// together, or not at all.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/balances"
	"github.com/odyssey-erp/odyssey-pos/internal/cashbox"
	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// DefaultMaxAttempts bounds retries of a unit of work that lost a race.
const DefaultMaxAttempts = 3

// AuditPort records committed operations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort deduplicates client requests carrying an Idempotency-Key.
// Keys are scoped per operation.
type IdempotencyPort interface {
	Claim(ctx context.Context, scope, key string) error
	Release(ctx context.Context, scope, key string) error
}

// CacheInvalidator drops cached audit results after ledgers move.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Metrics observes unit-of-work outcomes.
type Metrics interface {
	ObserveLedgerOperation(operation, outcome string, duration time.Duration)
}

// Dependencies wires the collaborators of Service. Only Store is required.
type Dependencies struct {
	Store       documents.Store
	Stock       *inventory.Ledger
	Balances    *balances.Ledger
	Cashbox     *cashbox.Service
	Audit       AuditPort
	Idempotency IdempotencyPort
	Cache       CacheInvalidator
	Locker      InvoiceLocker
	Metrics     Metrics
	Logger      *slog.Logger
}

// Config tunes Service behaviour.
type Config struct {
	CancelPolicy CancelPolicy
	MaxAttempts  int
	// Language selects the catalog used for cashbox descriptions.
	Language string
}

// Service orchestrates document operations across the ledgers.
type Service struct {
	store       documents.Store
	stock       *inventory.Ledger
	balances    *balances.Ledger
	cashbox     *cashbox.Service
	audit       AuditPort
	idempotency IdempotencyPort
	cache       CacheInvalidator
	locker      InvoiceLocker
	metrics     Metrics
	logger      *slog.Logger
	policy      CancelPolicy
	maxAttempts int
	text        *shared.Localizer
	now         func() time.Time
}

// NewService builds Service, filling in defaults for optional collaborators.
func NewService(deps Dependencies, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Stock == nil {
		deps.Stock = inventory.NewLedger(logger)
	}
	if deps.Balances == nil {
		deps.Balances = balances.NewLedger(logger)
	}
	if deps.Cashbox == nil {
		deps.Cashbox = cashbox.NewService(deps.Store, logger, cashbox.Config{})
	}
	if deps.Locker == nil {
		deps.Locker = NoopLocker{}
	}
	if cfg.CancelPolicy == "" {
		cfg.CancelPolicy = CancelPolicySymmetric
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Language == "" {
		cfg.Language = "ar"
	}
	return &Service{
		store:       deps.Store,
		stock:       deps.Stock,
		balances:    deps.Balances,
		cashbox:     deps.Cashbox,
		audit:       deps.Audit,
		idempotency: deps.Idempotency,
		cache:       deps.Cache,
		locker:      deps.Locker,
		metrics:     deps.Metrics,
		logger:      logger,
		policy:      cfg.CancelPolicy,
		maxAttempts: cfg.MaxAttempts,
		text:        shared.NewLocalizer("", cfg.Language),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Policy reports the configured cancel policy.
func (s *Service) Policy() CancelPolicy {
	return s.policy
}

// effects collects what a unit of work did so it can be published once the
// unit has committed.
type effects struct {
	cashbox []documents.CashboxTransaction
	audit   []shared.AuditLog
}

func (fx *effects) appended(entry documents.CashboxTransaction) {
	fx.cashbox = append(fx.cashbox, entry)
}

func (fx *effects) record(action, entity, id string, meta map[string]any) {
	fx.audit = append(fx.audit, shared.AuditLog{Action: action, Entity: entity, EntityID: id, Meta: meta})
}

// runUnit executes fn in one transaction, retrying when a concurrent writer
// won a serialization race or an invoice number. fn must be safe to re-run:
// the effects it receives are fresh on every attempt.
func (s *Service) runUnit(ctx context.Context, op string, fn func(context.Context, documents.Tx, *effects) error) error {
	started := time.Now()
	var (
		fx  *effects
		err error
	)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		fx = &effects{}
		err = s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
			return fn(ctx, tx, fx)
		})
		if err == nil || !shared.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("unit of work lost a race, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
	}
	s.observe(op, err, time.Since(started))
	if err != nil {
		return err
	}
	s.afterCommit(ctx, fx)
	return nil
}

func (s *Service) afterCommit(ctx context.Context, fx *effects) {
	s.cashbox.Notify(fx.cashbox...)
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("audit cache invalidation failed", slog.Any("error", err))
		}
	}
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	for _, entry := range fx.audit {
		entry.Actor = actor
		entry.At = s.now()
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("audit record failed",
				slog.String("action", entry.Action),
				slog.String("entity_id", entry.EntityID),
				slog.Any("error", err))
		}
	}
}

func (s *Service) observe(op string, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveLedgerOperation(op, outcome(err), elapsed)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, shared.ErrInsufficientCashbox):
		return "insufficient_cashbox"
	case errors.Is(err, shared.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, shared.ErrValidation):
		return "validation"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrConflict):
		return "conflict"
	}
	return "error"
}

// claimIdempotency reserves key for module. The returned release undoes the
// reservation and must be called when the operation fails.
func (s *Service) claimIdempotency(ctx context.Context, key, scope string) (func(), error) {
	if key == "" || s.idempotency == nil {
		return func() {}, nil
	}
	if err := s.idempotency.Claim(ctx, scope, key); err != nil {
		return nil, err
	}
	return func() {
		if err := s.idempotency.Release(context.WithoutCancel(ctx), scope, key); err != nil {
			s.logger.Warn("idempotency key release failed", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}

// verifyParty fails with NotFoundError when the referenced party is missing.
func verifyParty(ctx context.Context, tx documents.Tx, kind documents.Kind, id string) error {
	if kind == documents.KindPurchase {
		_, err := tx.GetSupplier(ctx, id)
		return err
	}
	_, err := tx.GetCustomer(ctx, id)
	return err
}
