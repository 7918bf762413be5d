package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-pos/internal/cashbox"
	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/documents/memstore"
	"github.com/odyssey-erp/odyssey-pos/internal/documents/pgstore"
	"github.com/odyssey-erp/odyssey-pos/internal/lifecycle"
	"github.com/odyssey-erp/odyssey-pos/internal/masterdata"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/reconciliation"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/report"
)

// Container owns the process-wide collaborators shared by the server, the
// worker and the CLI.
type Container struct {
	Config  *Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	Pool  *pgxpool.Pool
	Redis *redis.Client
	Store documents.Store

	AuditCache     *reconciliation.Cache
	Idempotency    *shared.IdempotencyStore
	Cashbox        *cashbox.Service
	Lifecycle      *lifecycle.Service
	Reconciliation *reconciliation.Service
	MasterData     *masterdata.Service
	Renderer       *report.Client
}

// Build connects the configured backends and constructs every service.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = NewLogger(cfg)
	}
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	switch cfg.StoreDriver {
	case StoreDriverMemory:
		c.Store = memstore.New()
		logger.Warn("using in-memory document store; data is lost on exit")
	default:
		pool, err := db.New(ctx, cfg.PGDSN, 0)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		c.Store = pgstore.New(pool)
	}

	if cfg.RedisEnabled() {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Redis = client
	}
	c.AuditCache = reconciliation.NewCache(c.Redis, cfg.AuditCacheTTL)

	policy, err := lifecycle.ParseCancelPolicy(cfg.LedgerCancelPolicy)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	// Postgres backs the audit trail and request keys; the memory store runs without them.
	var (
		auditPort       lifecycle.AuditPort
		idempotencyPort lifecycle.IdempotencyPort
	)
	if c.Pool != nil {
		auditLogger := shared.NewAuditLogger(c.Pool)
		c.Idempotency = shared.NewIdempotencyStore(c.Pool)
		auditPort = auditLogger
		idempotencyPort = c.Idempotency
	}

	var locker lifecycle.InvoiceLocker
	if c.Redis != nil {
		locker = lifecycle.NewRedisLocker(c.Redis, cfg.InvoiceLockTTL, logger)
	}

	c.Cashbox = cashbox.NewService(c.Store, logger, cashbox.Config{
		Window:   cfg.CashboxWindow,
		Observer: c.Metrics,
	})
	c.Lifecycle = lifecycle.NewService(lifecycle.Dependencies{
		Store:       c.Store,
		Cashbox:     c.Cashbox,
		Audit:       auditPort,
		Idempotency: idempotencyPort,
		Cache:       c.AuditCache,
		Locker:      locker,
		Metrics:     c.Metrics,
		Logger:      logger,
	}, lifecycle.Config{
		CancelPolicy: policy,
		MaxAttempts:  cfg.LedgerMaxAttempts,
		Language:     cfg.DefaultLocale,
	})
	c.Reconciliation = reconciliation.NewService(c.Store, c.AuditCache, c.Metrics, logger)
	c.MasterData = masterdata.NewService(c.Store, auditPort, c.AuditCache, logger)
	if cfg.GotenbergURL != "" {
		c.Renderer = report.NewClient(cfg.GotenbergURL, cfg.AppRequestTimeout)
	}
	return c, nil
}

// RedisOpts returns the asynq connection settings, or false when Redis is off.
func (c *Container) RedisOpts() (asynq.RedisClientOpt, bool) {
	if c == nil || !c.Config.RedisEnabled() {
		return asynq.RedisClientOpt{}, false
	}
	return asynq.RedisClientOpt{Addr: c.Config.RedisAddr}, true
}

// Close releases connections opened by Build.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
