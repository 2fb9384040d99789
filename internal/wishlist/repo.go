package wishlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the user's wishlist, inserting it on first use.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	record := &models.Wishlist{UserID: userID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(record).Error; err != nil {
		return nil, err
	}

	var wishlist models.Wishlist
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wishlist).Error; err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, wishlistID, productID uuid.UUID) error {
	if wishlistID == uuid.Nil || productID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, wishlist_id, product_id, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (wishlist_id, product_id) DO NOTHING`,
			uuid.New(), wishlistID, productID, time.Now().UTC()).
		Error
}

// RemoveProduct deletes the wishlist-product link if it exists.
func (r *Repository) RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

// RemoveItem deletes a wishlist row by id, scoped to the wishlist.
func (r *Repository) RemoveItem(ctx context.Context, wishlistID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("wishlist_id = ? AND id = ?", wishlistID, itemID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

// ListItems returns wishlist rows with their products, newest first.
func (r *Repository) ListItems(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("wishlist_id = ?", wishlistID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	return items, err
}
