package domain

import (
	"context"
	"time"
)

// CachedPrice 缓存的定价结果
type CachedPrice struct {
	Price         float64 `json:"price"`
	EuropeanPrice float64 `json:"european_price"`
	StdError      float64 `json:"std_error"`
	Steps         int     `json:"steps"`
	Paths         int     `json:"paths"`
}

// PricingCache 定价结果缓存
// 只缓存可复现的结果：二叉树，以及指定了种子的 LSM。
type PricingCache interface {
	Get(ctx context.Context, key string) (*CachedPrice, bool, error)
	Set(ctx context.Context, key string, price *CachedPrice, ttl time.Duration) error
}
