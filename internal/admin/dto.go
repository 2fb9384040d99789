package admin

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vapevault-backend/pkg/enums"
)

// Stats backs the dashboard cards.
type Stats struct {
	TotalOrders   int64 `json:"total_orders"`
	PendingOrders int64 `json:"pending_orders"`
	TotalUsers    int64 `json:"total_users"`
}

// DailySales is one day of the seven-day breakdown. Date is YYYY-MM-DD in UTC.
type DailySales struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Analytics struct {
	TotalRevenue decimal.Decimal             `json:"total_revenue"`
	TotalOrders  int64                       `json:"total_orders"`
	StatusCounts map[enums.OrderStatus]int64 `json:"status_counts"`
	Last7Days    []DailySales                `json:"last_7_days"`
}

// OrderStatusChange is one dirty row from the orders table.
type OrderStatusChange struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Status  string    `json:"status" validate:"required"`
}

// UserEdit is one dirty row from the users table. Nil fields are untouched.
type UserEdit struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	FullName *string   `json:"full_name,omitempty"`
	Role     *string   `json:"role,omitempty"`
}

// ProductInput is the body for creating a product.
type ProductInput struct {
	Name          string          `json:"name" validate:"required,notblank,max=200"`
	Brand         string          `json:"brand" validate:"max=100"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price" validate:"required,gt=0"`
	ImageURL      *string         `json:"image_url" validate:"omitempty,url"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	Features      []string        `json:"features"`
	Tags          []string        `json:"tags"`
	StockQuantity int             `json:"stock_quantity" validate:"min=0"`
}

// ProductEdit is one dirty row from the products table. Nil fields are
// untouched.
type ProductEdit struct {
	ProductID     uuid.UUID        `json:"product_id" validate:"required"`
	Name          *string          `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Brand         *string          `json:"brand,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gt=0"`
	ImageURL      *string          `json:"image_url,omitempty"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	Features      []string         `json:"features,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
}

// BatchResult reports how many rows a batch applied.
type BatchResult struct {
	Applied int `json:"applied"`
}
