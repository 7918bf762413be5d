package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// InvoiceLocker serialises invoice numbering per document kind across
// processes. The unique (kind, invoice_number) index remains the final
// arbiter; the lock only keeps losers from burning retries.
type InvoiceLocker interface {
	Acquire(ctx context.Context, kind documents.Kind) (release func(), err error)
}

// NoopLocker never blocks.
type NoopLocker struct{}

// Acquire implements InvoiceLocker.
func (NoopLocker) Acquire(context.Context, documents.Kind) (func(), error) {
	return func() {}, nil
}

// RedisLocker holds a redislock lease on pos:invoice:<kind>:lock while a
// document is numbered and persisted.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *slog.Logger
}

// NewRedisLocker builds a locker over client. A nil client yields NoopLocker.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) InvoiceLocker {
	if client == nil {
		return NoopLocker{}
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{locker: redislock.New(client), ttl: ttl, wait: 2 * time.Second, logger: logger}
}

// Acquire obtains the lease, waiting up to two seconds. When Redis is
// unavailable or the lease is contended past the wait, numbering proceeds
// unlocked and relies on the unique index plus retry.
func (l *RedisLocker) Acquire(ctx context.Context, kind documents.Kind) (func(), error) {
	key := shared.InvoiceLockKey(string(kind))
	backoff := 25 * time.Millisecond
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(backoff), int(l.wait/backoff)),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, redislock.ErrNotObtained) {
			l.logger.Warn("invoice lock contended, numbering without it", slog.String("key", key))
		} else {
			l.logger.Warn("invoice lock unavailable, numbering without it", slog.String("key", key), slog.Any("error", err))
		}
		return func() {}, nil
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("invoice lock release failed", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
