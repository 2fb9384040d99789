package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vapevault-backend/pkg/config"
)

type memoryCommands struct {
	values  map[string]string
	ttls    map[string]time.Duration
	expires int
}

func newMemoryCommands() *memoryCommands {
	return &memoryCommands{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCommands) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := m.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (m *memoryCommands) GetDel(ctx context.Context, key string) *redis.StringCmd {
	cmd := m.Get(ctx, key)
	delete(m.values, key)
	delete(m.ttls, key)
	return cmd
}

func (m *memoryCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.values[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCommands) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.Set(ctx, key, value, ttl)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			n++
		}
		delete(m.values, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(n, nil)
}

func (m *memoryCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	var n int64
	_, _ = fmt.Sscan(m.values[key], &n)
	n++
	m.values[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (m *memoryCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expires++
	if _, ok := m.ttls[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func memoryClient() (*Client, *memoryCommands) {
	cmd := newMemoryCommands()
	return &Client{Keyspace: NewKeyspace(""), cmd: cmd}, cmd
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, cmd := memoryClient()

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "ip:login:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.EqualValues(t, i+1, count)
	}

	key := client.RateLimitKey("ip:login:1.2.3.4")
	assert.Equal(t, time.Minute, cmd.ttls[key])
	assert.Equal(t, 3, cmd.expires)
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, _ := memoryClient()
	key := client.CacheKey("catalog", "products")

	_, err := client.Get(ctx, key)
	assert.True(t, IsMiss(err))

	require.NoError(t, client.Set(ctx, key, `[{"name":"Mango"}]`, time.Minute))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Mango"}]`, got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.True(t, IsMiss(err))
}

func TestGetDel(t *testing.T) {
	ctx := context.Background()
	client, _ := memoryClient()
	require.NoError(t, client.Set(ctx, "k", "v", 0))

	got, err := client.GetDel(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, err = client.GetDel(ctx, "k")
	assert.True(t, IsMiss(err))
}

func TestSetNXKeepsFirstValue(t *testing.T) {
	ctx := context.Background()
	client, _ := memoryClient()

	ok, err := client.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := client.Get(ctx, "k")
	assert.Equal(t, "first", got)
}

func TestKeyspace(t *testing.T) {
	keys := NewKeyspace("")
	assert.Equal(t, "vv:idempotency:scope:id", keys.IdempotencyKey("scope", "id"))
	assert.Equal(t, "vv:rate_limit:scope", keys.RateLimitKey("scope"))
	assert.Equal(t, "vv:session:access:abc", keys.AccessSessionKey("abc"))
	assert.Equal(t, "vv:cache:catalog:products", keys.CacheKey("catalog", "", "products"))
	assert.Equal(t, "vv:lock:embed-worker:prod", keys.LockKey("embed-worker:prod"))

	staging := NewKeyspace(" staging: ")
	assert.Equal(t, "staging:cache:catalog", staging.CacheKey("catalog"))

	var zero Keyspace
	assert.Equal(t, "vv:cache:x", zero.CacheKey("x"))
}

func TestDisconnectedClient(t *testing.T) {
	client := &Client{}
	ctx := context.Background()

	assert.ErrorIs(t, client.Ping(ctx), errNotConnected)
	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, errNotConnected)
	_, _, err = client.FixedWindowAllow(ctx, "s", 1, time.Second)
	assert.ErrorIs(t, err, errNotConnected)
	assert.NoError(t, client.Close())
}

func TestClientOptions(t *testing.T) {
	_, err := clientOptions(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := clientOptions(config.RedisConfig{
		URL:         "redis://:pw@cache.internal:6380/2",
		PoolSize:    20,
		DB:          5,
		DialTimeout: 3 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)

	opts, err = clientOptions(config.RedisConfig{Address: "localhost:6379", DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)

	_, err = clientOptions(config.RedisConfig{URL: "http://bad"})
	assert.Error(t, err)
}
