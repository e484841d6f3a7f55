// Package locker serialises ledger mutations per user across API instances.
package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/plug/fuel-api/internal/pkg/metrics"
)

// ErrLockNotAcquired is returned when another request holds the key for too long.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock.
type Unlock func()

// Locker hands out exclusive per-key locks.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// RedisLocker is a redsync-backed Locker.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
}

// New returns a RedisLocker, or a no-op locker when client is nil.
func New(client *redis.Client, expiry time.Duration) Locker {
	if client == nil {
		return Noop{}
	}
	if expiry <= 0 {
		expiry = 5 * time.Second
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		tries:  32,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	m := metrics.Get()
	start := time.Now()

	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(50*time.Millisecond),
	)
	err := mutex.LockContext(ctx)
	m.LockAcquireDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.LockAcquireTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, err)
	}
	m.LockAcquireTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return func() {
		// release on a fresh context so a cancelled request still unlocks
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(ctx); !ok || err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to release ledger lock")
		}
	}, nil
}

// Noop never blocks. Postgres row locks still serialise the mutation.
type Noop struct{}

func (Noop) Lock(context.Context, string) (Unlock, error) {
	return func() {}, nil
}
