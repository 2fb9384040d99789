package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

// ItemDTO is one cart line joined with its product.
type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	ImageURL      *string         `json:"image_url,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	StockQuantity int             `json:"stock_quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// CartDTO is the caller's cart with the running total.
type CartDTO struct {
	ID    uuid.UUID       `json:"id"`
	Items []ItemDTO       `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func newCartDTO(cart *models.Cart, items []models.CartItem) *CartDTO {
	dto := &CartDTO{ID: cart.ID, Items: make([]ItemDTO, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		line := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if p := item.Product; p != nil {
			line.Name = p.Name
			line.Brand = p.Brand
			line.ImageURL = p.ImageURL
			line.Price = p.Price
			line.StockQuantity = p.StockQuantity
		}
		line.LineTotal = line.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		dto.Total = dto.Total.Add(line.LineTotal)
		dto.Items = append(dto.Items, line)
	}
	return dto
}
