package cache

import (
	"context"
	"fmt"
	"time"

	"orderpay/internal/config"
	"orderpay/internal/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// InitRedis connects and pings; the client backs the per-order payment lock.
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr(), err)
	}

	logger.L().Info("redis connected", zap.String("addr", cfg.Addr()))
	return client, nil
}
