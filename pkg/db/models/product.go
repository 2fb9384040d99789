package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry. StockQuantity never goes below zero;
// the database enforces it with a check constraint.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	Name          string          `gorm:"column:name;not null"`
	Brand         string          `gorm:"column:brand;not null;default:'';index"`
	Description   *string         `gorm:"column:description"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL      *string         `gorm:"column:image_url"`
	Features      pq.StringArray  `gorm:"column:features;type:text[]"`
	Tags          pq.StringArray  `gorm:"column:tags;type:text[]"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
