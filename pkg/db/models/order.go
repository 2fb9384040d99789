package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/enums"
)

// Order is a placed checkout. TotalAmount equals the sum of its items'
// quantity * price_at_purchase at creation time.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	OrderDate       time.Time         `gorm:"column:order_date;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:pending"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingAddress *string           `gorm:"column:shipping_address"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	return nil
}
