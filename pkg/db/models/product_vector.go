package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ProductVector stores the embedding of a product's name and description,
// keyed by the product id.
type ProductVector struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536);not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
