package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
)

const keyPrefix = "quote:"

// RedisQuoteCache stores quotes as JSON values under quote:{TICKER} with a Redis TTL.
type RedisQuoteCache struct {
	client *redis.Client
}

// NewRedisQuoteCache connects to addr. The connection is lazy; call Ping to verify it.
func NewRedisQuoteCache(addr string) *RedisQuoteCache {
	return &RedisQuoteCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping checks that Redis is reachable.
func (c *RedisQuoteCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisQuoteCache) Close() error {
	return c.client.Close()
}

func (c *RedisQuoteCache) Get(ctx context.Context, ticker string) (model.Quote, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+ticker).Result()
	if errors.Is(err, redis.Nil) {
		return model.Quote{}, false, nil
	}
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("redis get %s: %w", ticker, err)
	}

	var q model.Quote
	if err := json.Unmarshal([]byte(val), &q); err != nil {
		return model.Quote{}, false, fmt.Errorf("decode cached quote %s: %w", ticker, err)
	}
	return q, true, nil
}

func (c *RedisQuoteCache) Set(ctx context.Context, ticker string, q model.Quote, ttl time.Duration) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", ticker, err)
	}
	if err := c.client.Set(ctx, keyPrefix+ticker, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", ticker, err)
	}
	return nil
}
