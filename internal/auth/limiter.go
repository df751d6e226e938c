package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-bulletin/internal/logger"
)

// Limiter throttles login attempts per client key.
type Limiter interface {
	// Allow records one attempt. When the key is over its budget it
	// returns false and the time until the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// RedisLimiter is a fixed-window counter kept in Redis.
type RedisLimiter struct {
	Client      *redis.Client
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

func NewRedisLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		Client:      client,
		MaxAttempts: maxAttempts,
		Window:      window,
		Prefix:      "login_attempts:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.Prefix + key

	// The window is created with its expiry in the same transaction as the
	// first increment, so a counter never outlives its window.
	var incr *redis.IntCmd
	_, err := l.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, l.Window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return true, 0, fmt.Errorf("login limiter: %w", err)
	}
	count := incr.Val()

	if int(count) <= l.MaxAttempts {
		return true, 0, nil
	}

	ttl, err := l.Client.TTL(ctx, k).Result()
	if err != nil {
		return false, l.Window, nil
	}
	if ttl < 0 {
		// Counter written without an expiry; give it one. A failed
		// repair is retried on the next attempt.
		_ = l.Client.Expire(ctx, k, l.Window).Err()
		ttl = l.Window
	}
	return false, ttl, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.Client.Del(ctx, l.Prefix+key).Err()
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       0,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s for login throttling", addr))
	return client, nil
}
