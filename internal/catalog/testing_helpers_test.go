package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/redis"
)

func mustInsertProduct(t *testing.T, db *gorm.DB, name, brand, price string, stock int, tags ...string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:          name,
		Brand:         brand,
		Price:         decimal.RequireFromString(price),
		Tags:          pq.StringArray(tags),
		Features:      pq.StringArray{},
		StockQuantity: stock,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("insert product %s: %v", name, err)
	}
	return product
}

type memoryCache struct {
	values map[string]string
	sets   int
}

var _ redis.CacheStore = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.sets++
	m.values[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	return "vv:cache:" + strings.Join(parts, ":")
}
