package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetStockLevel caches a product's derived stock level. Postgres stays the
// source of truth; the cache only serves reads.
func (c *Client) SetStockLevel(ctx context.Context, productID int64, total int, ttl time.Duration) error {
	key := fmt.Sprintf("stock:%d", productID)
	return c.rdb.Set(ctx, key, total, ttl).Err()
}

// GetStockLevel retrieves a cached stock level. The bool reports a cache hit.
func (c *Client) GetStockLevel(ctx context.Context, productID int64) (int, bool, error) {
	key := fmt.Sprintf("stock:%d", productID)
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	total, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt stock cache entry for product %d: %w", productID, err)
	}
	return total, true, nil
}

// InvalidateStockLevel drops a product's cached stock level after a mutation
func (c *Client) InvalidateStockLevel(ctx context.Context, productID int64) error {
	return c.rdb.Del(ctx, fmt.Sprintf("stock:%d", productID)).Err()
}

// SetIdempotencyKey stores the sale id committed for an idempotency key
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, saleID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), saleID, ttl).Err()
}

// GetIdempotencyKey retrieves the sale id for an idempotency key, if any
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	saleID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency entry %q: %w", key, err)
	}
	return saleID, true, nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
