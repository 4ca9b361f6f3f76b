package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UsageGate is the upstream gate checked before the pipeline runs: per-IP
// request rate and per-shop monthly quota. Both counters live in redis and
// are only ever touched with atomic increments, never read-then-write.
type UsageGate interface {
	CheckRateLimit(ctx context.Context, clientIP string) error
	CheckUsage(ctx context.Context, shopDomain string, limit int32) error
	IncrementUsage(ctx context.Context, shopDomain string) (int64, error)
}

type RedisGate struct {
	Client             *redis.Client
	RateLimitPerMinute int64
}

func NewRedisGate(addr string) *RedisGate {
	return &RedisGate{
		Client:             redis.NewClient(&redis.Options{Addr: addr}),
		RateLimitPerMinute: 10,
	}
}

func rateLimitKey(clientIP string, now time.Time) string {
	return fmt.Sprintf("rl:%s:%s", clientIP, now.Format("200601021504"))
}

// MonthlyUsageKey is the per-shop counter key for the month containing t.
func MonthlyUsageKey(shopDomain string, t time.Time) string {
	return fmt.Sprintf("usage:%s:%s", shopDomain, t.Format("2006-01"))
}

// CheckRateLimit counts this request against the caller's per-minute bucket.
// The count itself is the check: increment first, then compare, so two
// racing requests can never both observe the pre-increment value.
func (g *RedisGate) CheckRateLimit(ctx context.Context, clientIP string) error {
	key := rateLimitKey(clientIP, time.Now())
	pipe := g.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rate limit check failed: %v", err)
	}
	if incr.Val() > g.RateLimitPerMinute {
		return NewPipelineError(CodeRateLimit, "too many requests, try again in a minute")
	}
	return nil
}

// CheckUsage rejects the request when the shop's monthly counter has already
// reached its quota. The counter is advanced by the outbox worker only after
// a successful generation, so failed attempts never consume quota.
func (g *RedisGate) CheckUsage(ctx context.Context, shopDomain string, limit int32) error {
	used, err := g.Client.Get(ctx, MonthlyUsageKey(shopDomain, time.Now())).Int64()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("usage check failed: %v", err)
	}
	if used >= int64(limit) {
		return NewPipelineError(CodeUsageLimit, "monthly try-on limit reached for this shop")
	}
	return nil
}

// IncrementUsage atomically advances the shop's monthly counter. The TTL
// outlives the month so the key expires on its own once it stops mattering.
func (g *RedisGate) IncrementUsage(ctx context.Context, shopDomain string) (int64, error) {
	key := MonthlyUsageKey(shopDomain, time.Now())
	pipe := g.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, 40*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("usage increment failed: %v", err)
	}
	return incr.Val(), nil
}
