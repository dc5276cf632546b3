package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"algotutor/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis(ctx context.Context) error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if _, err := RDB.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("could not connect to redis at %s: %w", config.AppConfig.RedisAddr, err)
	}
	slog.Info("connected to redis", "addr", config.AppConfig.RedisAddr)
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		slog.Info("redis connection closed")
	}
}

const statusKeyPrefix = "algotutor:status:"

// Store is the slice of the redis client StatusCache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// StatusCache keeps terminal submission snapshots so repeated status polls
// for a finished submission do not reach the backend.
type StatusCache struct {
	rdb Store
	ttl time.Duration
}

func NewStatusCache(rdb Store, ttl time.Duration) *StatusCache {
	return &StatusCache{rdb: rdb, ttl: ttl}
}

func (c *StatusCache) Get(ctx context.Context, submissionID string) ([]byte, bool, error) {
	body, err := c.rdb.Get(ctx, statusKeyPrefix+submissionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("StatusCache.Get: %w", err)
	}
	return body, true, nil
}

func (c *StatusCache) Put(ctx context.Context, submissionID string, body []byte) error {
	if err := c.rdb.Set(ctx, statusKeyPrefix+submissionID, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("StatusCache.Put: %w", err)
	}
	return nil
}
