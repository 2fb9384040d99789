package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vapevault-backend/pkg/config"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) GetDel(ctx context.Context, key string) (string, error) {
	v, err := m.Get(ctx, key)
	if err == nil {
		_ = m.Del(ctx, key)
	}
	return v, err
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(t *testing.T) (*Manager, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	manager, err := NewManager(store, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	require.NoError(t, err)
	return manager, store
}

func TestNewManagerRequiresLongerRefreshTTL(t *testing.T) {
	_, err := NewManager(newMemoryStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)
	_, err = NewManager(nil, config.JWTConfig{ExpirationMinutes: 1, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)
}

func TestGenerateStoresHashOnly(t *testing.T) {
	ctx := context.Background()
	manager, store := newTestManager(t)
	userID := uuid.New()

	token, err := manager.Generate(ctx, "access-1", userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	stored := store.data["sess:access-1"]
	assert.True(t, strings.HasPrefix(stored, userID.String()+":"))
	assert.NotContains(t, stored, token)
	assert.Equal(t, time.Hour, store.ttl["sess:access-1"])

	live, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, live)
}

func TestRotate(t *testing.T) {
	ctx := context.Background()
	manager, store := newTestManager(t)
	userID := uuid.New()
	token, err := manager.Generate(ctx, "access-1", userID)
	require.NoError(t, err)

	next, nextToken, err := manager.Rotate(ctx, "access-1", userID, token)
	require.NoError(t, err)
	assert.NotEqual(t, "access-1", next)
	assert.NotEqual(t, token, nextToken)
	assert.NotContains(t, store.data, "sess:access-1")

	live, err := manager.HasSession(ctx, next)
	require.NoError(t, err)
	assert.True(t, live)

	_, _, err = manager.Rotate(ctx, "access-1", userID, token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateRejectsMismatch(t *testing.T) {
	ctx := context.Background()
	manager, store := newTestManager(t)
	owner := uuid.New()
	token, err := manager.Generate(ctx, "access-1", owner)
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, "access-1", owner, token+"x")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, _, err = manager.Rotate(ctx, "access-1", uuid.New(), token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, _, err = manager.Rotate(ctx, "", owner, token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	assert.Contains(t, store.data, "sess:access-1", "failed attempts keep the session")
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)
	_, err := manager.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, "access-1"))
	live, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, live)

	assert.Error(t, manager.Revoke(ctx, " "))
}
