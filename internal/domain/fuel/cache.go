package fuel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/plug/fuel-api/internal/pkg/metrics"
)

// BalanceCache holds the read projection served to the client HUD.
// Failures are logged and never fail the request.
type BalanceCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserCredits, bool)
	Set(ctx context.Context, c *UserCredits)
}

// RedisBalanceCache keeps one JSON document per user.
type RedisBalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache returns a Redis cache, or a no-op one when client is nil.
func NewBalanceCache(client *redis.Client, ttl time.Duration) BalanceCache {
	if client == nil {
		return noopCache{}
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisBalanceCache{client: client, ttl: ttl}
}

func balanceKey(userID uuid.UUID) string {
	return "fuel:balance:" + userID.String()
}

// LockKey is the per-user mutex name shared by every ledger mutation.
func LockKey(userID uuid.UUID) string {
	return "fuel:lock:" + userID.String()
}

func (c *RedisBalanceCache) Get(ctx context.Context, userID uuid.UUID) (*UserCredits, bool) {
	m := metrics.Get()

	raw, err := c.client.Get(ctx, balanceKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			m.BalanceCacheTotal.WithLabelValues(metrics.ResultError).Inc()
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("Balance cache read failed")
			return nil, false
		}
		m.BalanceCacheTotal.WithLabelValues(metrics.ResultMiss).Inc()
		return nil, false
	}

	var credits UserCredits
	if err := json.Unmarshal(raw, &credits); err != nil {
		m.BalanceCacheTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, false
	}
	m.BalanceCacheTotal.WithLabelValues(metrics.ResultHit).Inc()
	return &credits, true
}

func (c *RedisBalanceCache) Set(ctx context.Context, credits *UserCredits) {
	raw, err := json.Marshal(credits)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, balanceKey(credits.UserID), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", credits.UserID.String()).Msg("Balance cache write failed")
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) (*UserCredits, bool) { return nil, false }
func (noopCache) Set(context.Context, *UserCredits)                   {}
