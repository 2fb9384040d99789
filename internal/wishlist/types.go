package wishlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

// ItemDTO is a liked product as shown on the wishlist page.
type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      *string         `json:"image_url,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToggleResult reports the state after a toggle.
type ToggleResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	Wishlisted bool      `json:"wishlisted"`
}

func newItemDTOs(items []models.WishlistItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		dto := ItemDTO{ID: item.ID, ProductID: item.ProductID, CreatedAt: item.CreatedAt}
		if p := item.Product; p != nil {
			dto.Name = p.Name
			dto.Brand = p.Brand
			dto.Price = p.Price
			dto.ImageURL = p.ImageURL
			dto.StockQuantity = p.StockQuantity
		}
		out = append(out, dto)
	}
	return out
}
