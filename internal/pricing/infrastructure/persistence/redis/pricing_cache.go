package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/cache"
)

// PricingRedisCache 基于 Redis 的定价结果缓存
type PricingRedisCache struct {
	cache  *cache.RedisCache
	prefix string
}

func NewPricingRedisCache(c *cache.RedisCache) *PricingRedisCache {
	return &PricingRedisCache{
		cache:  c,
		prefix: "pricing_result:",
	}
}

func (r *PricingRedisCache) Get(ctx context.Context, key string) (*domain.CachedPrice, bool, error) {
	var price domain.CachedPrice
	err := r.cache.GetJSON(ctx, r.key(key), &price)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached price %q: %w", key, err)
	}
	return &price, true, nil
}

func (r *PricingRedisCache) Set(ctx context.Context, key string, price *domain.CachedPrice, ttl time.Duration) error {
	if price == nil {
		return nil
	}
	return r.cache.SetJSON(ctx, r.key(key), price, ttl)
}

func (r *PricingRedisCache) key(key string) string {
	return fmt.Sprintf("%s%s", r.prefix, key)
}
