package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

// ProductDTO is the catalog payload served to storefront clients.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      *string         `json:"image_url"`
	Features      []string        `json:"features"`
	Tags          []string        `json:"tags"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductCard is the trimmed projection handed to the chat assistant.
type ProductCard struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      *string         `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
}

type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

// VectorMatch is one row of match_product_vectors.
type VectorMatch struct {
	ProductID  uuid.UUID `json:"product_id" gorm:"column:product_id"`
	Similarity float64   `json:"similarity" gorm:"column:similarity"`
}

func NewProductDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		Name:          p.Name,
		Brand:         p.Brand,
		Description:   p.Description,
		Price:         p.Price,
		ImageURL:      p.ImageURL,
		Features:      append([]string{}, p.Features...),
		Tags:          append([]string{}, p.Tags...),
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func NewProductDTOs(list []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(list))
	for i := range list {
		out = append(out, NewProductDTO(&list[i]))
	}
	return out
}

func newCategoryDTOs(list []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(list))
	for _, c := range list {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	return out
}
