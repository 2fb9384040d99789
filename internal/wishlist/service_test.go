package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

func TestToggleAndReAddKeepsSingleRow(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, catalog.NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	product := &models.Product{
		Name:     "Watermelon Ice",
		Brand:    "Lost Mary",
		Price:    decimal.RequireFromString("14.99"),
		Tags:     pq.StringArray{},
		Features: pq.StringArray{},
	}
	require.NoError(t, db.Create(product).Error)

	res, err := svc.Toggle(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.True(t, res.Wishlisted)

	items, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Watermelon Ice", items[0].Name)

	require.NoError(t, svc.RemoveItem(ctx, userID, items[0].ID))
	res, err = svc.Toggle(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.True(t, res.Wishlisted)

	wl, err := repo.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, repo.AddItem(ctx, wl.ID, product.ID))

	var count int64
	require.NoError(t, db.Model(&models.WishlistItem{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	res, err = svc.Toggle(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.False(t, res.Wishlisted)
	items, err = svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestToggleUnknownProduct(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db))
	require.NoError(t, err)

	_, err = svc.Toggle(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.RemoveItem(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
