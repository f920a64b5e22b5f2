package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/config"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/logger"
)

// Redis shares total intensities between runs and processes.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Dial connects to Redis and verifies the connection with a PING.
func Dial(cfg config.RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(rdb, cfg.Prefix, cfg.CacheTTL), nil
}

// NewRedis wraps an existing client. A zero ttl keeps entries forever.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.WithComponent("intensity-cache"),
	}
}

func (r *Redis) Get(ctx context.Context, spectrumID int64) (float64, bool) {
	key := r.key(spectrumID)
	v, err := r.rdb.Get(ctx, key).Float64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Error("cache get failed", "key", key, "error", err)
		}
		return 0, false
	}
	return v, true
}

func (r *Redis) Set(ctx context.Context, spectrumID int64, total float64) {
	key := r.key(spectrumID)
	value := strconv.FormatFloat(total, 'g', -1, 64)
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Close closes the underlying connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) key(spectrumID int64) string {
	return fmt.Sprintf("%stotal-intensity:%d", r.prefix, spectrumID)
}
