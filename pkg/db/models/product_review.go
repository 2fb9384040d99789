package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductReview struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Rating     int       `gorm:"column:rating;not null"`
	ReviewText *string   `gorm:"column:review_text"`
	User       *User     `gorm:"foreignKey:UserID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *ProductReview) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
