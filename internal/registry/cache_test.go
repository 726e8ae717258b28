package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bidon15/summonpredict/internal/create2"
	"github.com/Bidon15/summonpredict/internal/registry"
	"github.com/Bidon15/summonpredict/internal/registry/registrytest"
)

type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", errors.New("redis down")
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("redis down")
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

var (
	factory = common.HexToAddress("0x0000000000000000000000000000000000000001")
	primary = common.HexToAddress("0x0000000000000000000000000000000000000002")
	deps    = [create2.NumDependents]common.Address{
		common.HexToAddress("0x0000000000000000000000000000000000000003"),
		common.HexToAddress("0x0000000000000000000000000000000000000004"),
		common.HexToAddress("0x0000000000000000000000000000000000000005"),
	}
)

func TestCachedRegistry_HitsCache(t *testing.T) {
	ctx := context.Background()
	static := registrytest.New(primary, deps)
	cache := newMemCache()
	r := registry.NewCachedRegistry(static, cache, factory, time.Minute, nil)

	for i := 0; i < 3; i++ {
		impls, err := registry.Resolve(ctx, r, factory)
		require.NoError(t, err)
		assert.Equal(t, primary, impls.Primary)
		assert.Equal(t, deps, impls.Dependents())
	}

	assert.Equal(t, 1, static.Calls("Implementation"))
	assert.Equal(t, 1, static.Calls("DependentImplementations"))
	assert.Contains(t, cache.data, "summon:impl:"+factory.Hex())
	assert.Contains(t, cache.data, "summon:deps:"+primary.Hex())
	assert.Equal(t, time.Minute, cache.ttls["summon:impl:"+factory.Hex()])
}

func TestCachedRegistry_DefaultTTL(t *testing.T) {
	cache := newMemCache()
	r := registry.NewCachedRegistry(registrytest.New(primary, deps), cache, factory, 0, nil)

	_, err := r.Implementation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultCacheTTL, cache.ttls["summon:impl:"+factory.Hex()])
}

func TestCachedRegistry_DegradesOnCacheFailure(t *testing.T) {
	ctx := context.Background()
	static := registrytest.New(primary, deps)
	cache := newMemCache()
	cache.failGet = true
	cache.failSet = true
	r := registry.NewCachedRegistry(static, cache, factory, time.Minute, nil)

	for i := 0; i < 2; i++ {
		got, err := r.Implementation(ctx)
		require.NoError(t, err)
		assert.Equal(t, primary, got)
	}
	assert.Equal(t, 2, static.Calls("Implementation"))
}

func TestCachedRegistry_IgnoresCorruptEntry(t *testing.T) {
	cache := newMemCache()
	cache.data["summon:impl:"+factory.Hex()] = "not json"
	static := registrytest.New(primary, deps)
	r := registry.NewCachedRegistry(static, cache, factory, time.Minute, nil)

	got, err := r.Implementation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, primary, got)
	assert.Equal(t, 1, static.Calls("Implementation"))
}

func TestCachedRegistry_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	static := registrytest.New(primary, deps)
	static.Err = errors.New("rpc down")
	cache := newMemCache()
	r := registry.NewCachedRegistry(static, cache, factory, time.Minute, nil)

	_, err := r.Implementation(ctx)
	require.Error(t, err)
	assert.Empty(t, cache.data)
}

func TestCachedRegistry_DeploymentsPassThrough(t *testing.T) {
	static := registrytest.New(primary, deps)
	static.Deployed = []registry.Deployment{
		{Index: 0, DAO: common.HexToAddress("0xd1"), BlockNumber: 5},
		{Index: 1, DAO: common.HexToAddress("0xd2"), BlockNumber: 9},
	}
	r := registry.NewCachedRegistry(static, newMemCache(), factory, time.Minute, nil)

	for i := 0; i < 2; i++ {
		got, err := r.Deployments(context.Background(), 6)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, common.HexToAddress("0xd2"), got[0].DAO)
	}
	assert.Equal(t, 2, static.Calls("Deployments"))
}
