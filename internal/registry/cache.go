package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/Bidon15/summonpredict/internal/create2"
)

// DefaultCacheTTL bounds how long implementation lookups are reused.
const DefaultCacheTTL = 10 * time.Minute

// Cache is the key-value store CachedRegistry writes through. database.Redis
// implements it; a miss is reported as redis.Nil.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CachedRegistry caches implementation lookups of another Registry.
// Deployments always go to the wrapped registry.
type CachedRegistry struct {
	next    Registry
	cache   Cache
	factory common.Address
	ttl     time.Duration
	logger  *slog.Logger
}

var _ Registry = (*CachedRegistry)(nil)

// NewCachedRegistry wraps next. factory namespaces the implementation key.
func NewCachedRegistry(next Registry, cache Cache, factory common.Address, ttl time.Duration, logger *slog.Logger) *CachedRegistry {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRegistry{next: next, cache: cache, factory: factory, ttl: ttl, logger: logger}
}

func implKey(factory common.Address) string {
	return fmt.Sprintf("summon:impl:%s", factory.Hex())
}

func depsKey(primary common.Address) string {
	return fmt.Sprintf("summon:deps:%s", primary.Hex())
}

// Implementation returns the cached DAO implementation or fetches it.
func (c *CachedRegistry) Implementation(ctx context.Context) (common.Address, error) {
	key := implKey(c.factory)

	var addr common.Address
	if c.load(ctx, key, &addr) {
		return addr, nil
	}
	addr, err := c.next.Implementation(ctx)
	if err != nil {
		return common.Address{}, err
	}
	c.store(ctx, key, addr)
	return addr, nil
}

// DependentImplementations returns the cached token implementations or
// fetches them.
func (c *CachedRegistry) DependentImplementations(ctx context.Context, primary common.Address) ([create2.NumDependents]common.Address, error) {
	key := depsKey(primary)

	var deps [create2.NumDependents]common.Address
	if c.load(ctx, key, &deps) {
		return deps, nil
	}
	deps, err := c.next.DependentImplementations(ctx, primary)
	if err != nil {
		return deps, err
	}
	c.store(ctx, key, deps)
	return deps, nil
}

// Deployments is not cached.
func (c *CachedRegistry) Deployments(ctx context.Context, fromBlock uint64) ([]Deployment, error) {
	return c.next.Deployments(ctx, fromBlock)
}

func (c *CachedRegistry) load(ctx context.Context, key string, out any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("registry cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.logger.Warn("registry cache entry corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (c *CachedRegistry) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("registry cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
