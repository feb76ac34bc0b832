package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisConfig holds redis connection settings for the shared-cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis stores cache entries in a shared redis instance. Useful when several
// runners (nightly CI workers) want to share one page cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects the redis backend and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Redis page cache connected")

	return &Redis{client: client, ttl: cfg.TTL}, nil
}

func (r *Redis) key(key string) string {
	return "page:" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return body, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, body []byte) error {
	if err := r.client.Set(ctx, r.key(key), body, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
