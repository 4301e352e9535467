package rates

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cachePrefix = "rates:v1:"

// CachedProvider caches rate lookups in Redis with a TTL. Cache failures are
// non-fatal: reads fall through to the wrapped provider, writes are best
// effort.
type CachedProvider struct {
	next  Provider
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedProvider wraps a provider with a Redis cache.
func NewCachedProvider(next Provider, cache *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

// Rate returns the cached multiplier when present, otherwise fetches and
// stores it.
func (p *CachedProvider) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	key := cachePrefix + currency

	if cached, err := p.cache.Get(ctx, key).Result(); err == nil {
		if rate, err := decimal.NewFromString(cached); err == nil {
			return rate, nil
		}
	}

	rate, err := p.next.Rate(ctx, currency)
	if err != nil {
		return decimal.Decimal{}, err
	}

	p.cache.Set(ctx, key, rate.String(), p.ttl) // best effort
	return rate, nil
}
