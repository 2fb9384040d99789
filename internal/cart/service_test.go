package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

type fixture struct {
	db     *gorm.DB
	repo   *Repository
	svc    Service
	userID uuid.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, catalog.NewRepository(db))
	require.NoError(t, err)
	return fixture{db: db, repo: repo, svc: svc, userID: uuid.New()}
}

func (f fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:          name,
		Brand:         "Elf",
		Price:         decimal.RequireFromString(price),
		Tags:          pq.StringArray{},
		Features:      pq.StringArray{},
		StockQuantity: stock,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.repo.GetOrCreate(ctx, f.userID)
	require.NoError(t, err)
	second, err := f.repo.GetOrCreate(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&models.Cart{}).Where("user_id = ?", f.userID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddItemRespectsStockCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mango", "10.00", 2)

	_, err := f.svc.AddItem(ctx, f.userID, p.ID)
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, f.userID, p.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("20.00")))

	_, err = f.svc.AddItem(ctx, f.userID, p.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Equal(t, "Only 2 left in stock", typed.Message())

	cart, err = f.svc.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAddOutOfStockProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Sold Out", "10.00", 0)
	_, err := f.svc.AddItem(context.Background(), f.userID, p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.AddItem(context.Background(), f.userID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateQuantityAtCeilingIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Kiwi", "8.00", 3)

	cart, err := f.svc.AddItem(ctx, f.userID, p.ID)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = f.svc.UpdateQuantity(ctx, f.userID, itemID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	_, err = f.svc.UpdateQuantity(ctx, f.userID, itemID, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Only 3 available in stock", typed.Message())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 4, details["requested"])

	cart, err = f.svc.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestDecreaseToZeroDeletesLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Peach", "9.00", 5)
	other := f.product(t, "Lime", "7.00", 5)

	cart, err := f.svc.AddItem(ctx, f.userID, p.ID)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.userID, other.ID)
	require.NoError(t, err)

	cart, err = f.svc.UpdateQuantity(ctx, f.userID, cart.Items[0].ID, -1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, other.ID, cart.Items[0].ProductID)

	cart, err = f.svc.DeleteItem(ctx, f.userID, cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestItemsOutsideCallerCartAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Berry", "6.00", 5)

	theirs, err := f.svc.AddItem(ctx, uuid.New(), p.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateQuantity(ctx, f.userID, theirs.Items[0].ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.DeleteItem(ctx, f.userID, theirs.Items[0].ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.UpdateQuantity(ctx, f.userID, theirs.Items[0].ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
