package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/vapevault-backend/pkg/config"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the Redis surface sessions live in.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker lets middleware reject tokens whose session was
// revoked or rotated away.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager keeps one refresh session per access token id. Only a SHA-256 of
// the refresh token is stored, next to the owning user id.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	access := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= access {
		return nil, fmt.Errorf("refresh token ttl %s must exceed access token ttl %s", ttl, access)
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// NewAccessID returns a fresh jti.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(accessID) == "" || userID == uuid.Nil {
		return "", errors.New("access id and user id are required")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), record(userID, token), m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Rotate trades a valid refresh token for a new access id and refresh token.
// The old session is removed with GETDEL so two concurrent refreshes cannot
// both succeed.
func (m *Manager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, presented string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || presented == "" || userID == uuid.Nil {
		return "", "", ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)
	want := record(userID, presented)

	current, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", missing(err)
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(want)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}
	claimed, err := m.store.GetDel(ctx, key)
	if err != nil {
		return "", "", missing(err)
	}
	if claimed != current {
		return "", "", ErrInvalidRefreshToken
	}

	next := NewAccessID()
	token, err := m.Generate(ctx, next, userID)
	if err != nil {
		return "", "", err
	}
	return next, token, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errors.New("access id is required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, nil
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func record(userID uuid.UUID, token string) string {
	sum := sha256.Sum256([]byte(token))
	return userID.String() + ":" + hex.EncodeToString(sum[:])
}

func missing(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
