package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	"github.com/angelmondragon/vapevault-backend/pkg/pagination"
)

// Repository exposes order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	Count(ctx context.Context, status *enums.OrderStatus) (int64, error)
	Totals(ctx context.Context) (Totals, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	ListSince(ctx context.Context, since time.Time) ([]OrderSummaryRow, error)
}

// ListParams filters the admin order list.
type ListParams struct {
	pagination.Params
	Status *enums.OrderStatus
}

// Totals aggregates every order ever placed.
type Totals struct {
	Orders  int64           `gorm:"column:orders"`
	Revenue decimal.Decimal `gorm:"column:revenue"`
}

// OrderSummaryRow is the slim projection used for daily analytics.
type OrderSummaryRow struct {
	OrderDate   time.Time         `gorm:"column:order_date"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount"`
	Status      enums.OrderStatus `gorm:"column:status"`
}
