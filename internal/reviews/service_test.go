package reviews

import (
	"context"
	"testing"
	"time"

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

func TestCreateAndListNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db))
	require.NoError(t, err)

	user := &models.User{FullName: "Grace", Email: "grace@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	product := &models.Product{
		Name:     "Peach Ice",
		Price:    decimal.RequireFromString("19.99"),
		Tags:     pq.StringArray{},
		Features: pq.StringArray{},
	}
	require.NoError(t, db.Create(product).Error)

	old := &models.ProductReview{ProductID: product.ID, UserID: user.ID, Rating: 3, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	require.NoError(t, db.Omit("User").Create(old).Error)

	text := "  smooth draw  "
	created, err := svc.Create(ctx, user.ID, product.ID, CreateRequest{Rating: 5, ReviewText: &text})
	require.NoError(t, err)
	require.NotNil(t, created.ReviewText)
	assert.Equal(t, "smooth draw", *created.ReviewText)

	list, err := svc.List(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Grace", list[0].AuthorName)
	assert.Equal(t, old.ID, list[1].ID)
}

func TestCreateValidatesRatingAndProduct(t *testing.T) {
	db := dbtest.Open(t)
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	for _, rating := range []int{0, 6} {
		_, err := svc.Create(ctx, uuid.New(), uuid.New(), CreateRequest{Rating: rating})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "rating %d", rating)
	}

	_, err = svc.Create(ctx, uuid.New(), uuid.New(), CreateRequest{Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
