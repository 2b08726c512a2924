// Package ratelimit 提供按 key 限流：Redis GCRA（多实例共享）与进程内令牌桶
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	// Allow 检查 key 在 limit 规则下是否放行
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit 限流规则
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// PerSecond 每秒 rate 次，突发 burst
func PerSecond(rate, burst int) Limit {
	return Limit{Rate: rate, Period: time.Second, Burst: burst}
}

// Result 一次限流检查的结果
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RedisRateLimiter 基于 Redis 的分布式限流
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

// NewRedisRateLimiter 创建 Redis 限流器
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
	}
}

// Allow 检查是否放行
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}

const (
	// 空闲超过该时长且令牌已回满的桶会被回收
	localIdleTTL = 10 * time.Minute
	// 两次回收扫描的最小间隔
	localSweepInterval = time.Minute
)

type localBucket struct {
	lim      *rate.Limiter
	burst    int
	lastSeen time.Time
}

// LocalRateLimiter 进程内令牌桶，未配置 Redis 时使用
type LocalRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*localBucket
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalRateLimiter 创建进程内限流器
func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{
		limiters: make(map[string]*localBucket),
		idleTTL:  localIdleTTL,
		now:      time.Now,
	}
}

// Allow 检查是否放行，每个 key 一个令牌桶
func (l *LocalRateLimiter) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit: rate=%d period=%s", limit.Rate, limit.Period)
	}
	burst := limit.Burst
	if burst < 1 {
		burst = 1
	}
	every := rate.Every(limit.Period / time.Duration(limit.Rate))

	now := l.now()
	l.mu.Lock()
	l.sweep(now)
	b, ok := l.limiters[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(every, burst), burst: burst}
		l.limiters[key] = b
	}
	b.lastSeen = now
	lim := b.lim
	l.mu.Unlock()

	res := &Result{}
	if lim.AllowN(now, 1) {
		res.Allowed = true
		res.RetryAfter = -1
	} else {
		r := lim.ReserveN(now, 1)
		res.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}

	tokens := lim.TokensAt(now)
	res.Remaining = max(0, int(math.Floor(tokens)))
	missing := float64(burst) - tokens
	if missing > 0 {
		res.ResetAfter = time.Duration(missing / float64(every) * float64(time.Second))
	}
	return res, nil
}

// sweep 回收空闲且满桶的 key，回收后重建的桶与原桶状态一致，调用方需持有锁
func (l *LocalRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < localSweepInterval {
		return
	}
	l.lastSweep = now
	for key, b := range l.limiters {
		if now.Sub(b.lastSeen) >= l.idleTTL && b.lim.TokensAt(now) >= float64(b.burst) {
			delete(l.limiters, key)
		}
	}
}
