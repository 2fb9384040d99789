package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLeaseKey = "vv:lock:embed-worker:test"

type memoryLeaseStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryLeaseStore() *memoryLeaseStore {
	return &memoryLeaseStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryLeaseStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryLeaseStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryLeaseStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLockerIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := newMemoryLeaseStore()
	locker, err := NewRedisLocker(store, testLeaseKey, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLeaseTTL, locker.TTL())

	release, held, err := locker.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, held)
	assert.Equal(t, defaultLeaseTTL, store.ttls[testLeaseKey])

	again, held, err := locker.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, held)
	assert.Nil(t, again)

	require.NoError(t, release(ctx))
	assert.NotContains(t, store.values, testLeaseKey)
	require.NoError(t, release(ctx), "releasing twice is harmless")

	_, held, err = locker.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestRedisLockerKeepsSuccessorsLease(t *testing.T) {
	ctx := context.Background()
	store := newMemoryLeaseStore()
	locker, err := NewRedisLocker(store, testLeaseKey, time.Minute)
	require.NoError(t, err)

	release, held, err := locker.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, held)

	// lease expired and another instance took it
	store.values[testLeaseKey] = "successor"
	require.NoError(t, release(ctx))
	assert.Equal(t, "successor", store.values[testLeaseKey])
}

func TestNewRedisLockerValidates(t *testing.T) {
	_, err := NewRedisLocker(nil, testLeaseKey, 0)
	assert.Error(t, err)
	_, err = NewRedisLocker(newMemoryLeaseStore(), "", 0)
	assert.Error(t, err)
}
