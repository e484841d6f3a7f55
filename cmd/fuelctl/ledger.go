package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/plug/fuel-api/internal/domain/fuel"
	"github.com/plug/fuel-api/internal/domain/promo"
	"github.com/plug/fuel-api/internal/pkg/codehash"
	"github.com/plug/fuel-api/internal/pkg/database"
	"github.com/plug/fuel-api/internal/pkg/locker"
)

// ledger is the same service graph the API builds, so CLI writes take the same
// per-user locks and refresh the same balance cache.
type ledger struct {
	db    *sqlx.DB
	redis *redis.Client
	fuel  *fuel.Service
	promo *promo.Service
}

func openLedger() (*ledger, error) {
	db, err := database.NewPostgres(viper.GetString("database-url"), database.PoolOptions{MaxOpenConns: 4})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	rdb, err := database.NewRedis(viper.GetString("redis-url"))
	if err != nil {
		database.ClosePostgres(db)
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	hasher, err := codehash.New(viper.GetString("promo-code-pepper"))
	if err != nil {
		database.ClosePostgres(db)
		database.CloseRedis(rdb)
		return nil, err
	}

	creditsRepo := fuel.NewRepository(db)
	userLocks := locker.New(rdb, viper.GetDuration("lock-expiry"))
	fuelSvc := fuel.NewService(creditsRepo, fuel.NewBalanceCache(rdb, viper.GetDuration("balance-cache-ttl")), userLocks)

	return &ledger{
		db:    db,
		redis: rdb,
		fuel:  fuelSvc,
		promo: promo.NewService(promo.NewRepository(db, creditsRepo), fuelSvc, hasher, userLocks),
	}, nil
}

func (l *ledger) Close() {
	database.CloseRedis(l.redis)
	database.ClosePostgres(l.db)
}
