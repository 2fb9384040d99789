package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

// cardColumns is the projection used when hydrating vector search hits.
var cardColumns = []string{"id", "name", "brand", "price", "image_url", "stock_quantity"}

// Repository wraps catalog persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) ListBrands(ctx context.Context) ([]string, error) {
	var brands []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("brand <> ''").
		Distinct("brand").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	return brands, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByName returns the product whose name matches exactly.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) ListByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("brand = ?", brand).Order("name ASC").Find(&rows).Error
	return rows, err
}

// FindByIDs loads product cards for the given ids, in no particular order.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Select(cardColumns).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// MatchProductVectors runs the nearest-neighbour RPC over product embeddings.
func (r *Repository) MatchProductVectors(ctx context.Context, embedding []float32, k int) ([]VectorMatch, error) {
	var matches []VectorMatch
	err := r.db.WithContext(ctx).
		Raw("SELECT product_id, similarity FROM match_product_vectors(?, ?)", pgvector.NewVector(embedding), k).
		Scan(&matches).Error
	return matches, err
}

func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update applies column changes to one product and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, cols map[string]any) (*models.Product, error) {
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock removes qty units from a product only when that many are in
// stock. It reports false, leaving the row untouched, otherwise.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = ? WHERE id = ? AND stock_quantity >= ?",
		qty, time.Now().UTC(), productID, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Exists reports whether a product row exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
