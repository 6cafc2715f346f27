// Package cache is the Redis read-through cache for catalog products.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/shopnow/internal/product/domain"
)

const keyPrefix = "catalog:product:"

type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func Key(id int64) string { return fmt.Sprintf("%s%d", keyPrefix, id) }

type entry struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	SKUCode       string          `json:"skuCode"`
}

func (c *RedisCache) Get(ctx context.Context, id int64) (domain.Product, bool, error) {
	raw, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.Product{}, false, fmt.Errorf("cache: decode %s: %w", Key(id), err)
	}
	return domain.Product(e), true, nil
}

func (c *RedisCache) Set(ctx context.Context, p domain.Product) error {
	raw, err := json.Marshal(entry(p))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(p.ID), raw, c.ttl).Err()
}

func (c *RedisCache) Evict(ctx context.Context, id int64) error {
	return c.client.Del(ctx, Key(id)).Err()
}
