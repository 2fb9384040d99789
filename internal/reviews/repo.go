package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// withAuthor loads only the reviewer columns a review card shows.
func withAuthor(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User", func(q *gorm.DB) *gorm.DB {
		return q.Select("id", "full_name")
	})
}

// ListForProduct returns a product's reviews newest first.
func (r *Repository) ListForProduct(ctx context.Context, productID uuid.UUID) (rows []models.ProductReview, err error) {
	err = r.db.WithContext(ctx).
		Scopes(withAuthor).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// Create inserts review without touching the associated user row.
func (r *Repository) Create(ctx context.Context, review *models.ProductReview) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}
