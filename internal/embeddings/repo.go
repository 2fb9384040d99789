package embeddings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

// SourceProduct is the slice of a product that feeds its embedding text.
type SourceProduct struct {
	ID          uuid.UUID `gorm:"column:id"`
	Name        string    `gorm:"column:name"`
	Description *string   `gorm:"column:description"`
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListSources returns named products ordered by id. Unless all is set, only
// products without a stored vector are returned.
func (r *Repository) ListSources(ctx context.Context, all bool) ([]SourceProduct, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("id, name, description").
		Where("name <> ''")
	if !all {
		query = query.Where("NOT EXISTS (SELECT 1 FROM product_vectors v WHERE v.id = products.id)")
	}
	var rows []SourceProduct
	err := query.Order("id").Scan(&rows).Error
	return rows, err
}

// Upsert writes embeddings keyed by product id, replacing existing vectors.
func (r *Repository) Upsert(ctx context.Context, ids []uuid.UUID, vectors [][]float32) error {
	now := time.Now().UTC()
	rows := make([]models.ProductVector, 0, len(ids))
	for i, id := range ids {
		rows = append(rows, models.ProductVector{
			ID:        id,
			Embedding: pgvector.NewVector(vectors[i]),
			UpdatedAt: now,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding", "updated_at"}),
		}).
		Create(&rows).Error
}
