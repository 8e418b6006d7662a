package db

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	redisOnce sync.Once
	rdb       *redis.Client
	redisErr  error
)

// Redis returns the process-wide redis client, creating it on first
// call with the same once-wins semantics as Pool.
func Redis(ctx context.Context, url string, log *zap.Logger) (*redis.Client, error) {
	redisOnce.Do(func() {
		rdb, redisErr = newRedisClient(ctx, url, log)
	})
	return rdb, redisErr
}

func newRedisClient(ctx context.Context, url string, log *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Info("redis connected", zap.String("addr", opts.Addr))
	return client, nil
}
