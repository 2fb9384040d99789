package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/internal/cart"
	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/internal/orders"
	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// Checkout steps, reported in error details as "step".
const (
	StepOrderCreate    = "order_create"
	StepOrderItems     = "order_items"
	StepStockDecrement = "stock_decrement"
	StepCartClear      = "cart_clear"
)

const insufficientStockMessage = "Some items exceed available stock. Update quantities."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type checkoutMetrics interface {
	OrderPlaced(lines int)
	InsufficientStock()
}

// Service executes checkout orchestration.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error)
}

// ServiceParams bundles checkout dependencies. The repositories are rebound
// to the checkout transaction. Catalog and Metrics are optional.
type ServiceParams struct {
	Tx       txRunner
	Carts    *cart.Repository
	Orders   orders.Repository
	Products *catalog.Repository
	Catalog  catalogInvalidator
	Metrics  checkoutMetrics
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	carts    *cart.Repository
	orders   orders.Repository
	products *catalog.Repository
	catalog  catalogInvalidator
	metrics  checkoutMetrics
	logger   *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Carts == nil, params.Orders == nil, params.Products == nil:
		return nil, fmt.Errorf("cart, order and product repositories required")
	}
	return &service{
		tx:       params.Tx,
		carts:    params.Carts,
		orders:   params.Orders,
		products: params.Products,
		catalog:  params.Catalog,
		metrics:  params.Metrics,
		logger:   params.Logger,
	}, nil
}

// PlaceOrder turns the user's cart into a pending order. The order, its
// lines, the stock decrements and the cart clear commit together or not at
// all. An empty cart is rejected without writing anything.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var result orders.OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		productRepo := s.products.WithTx(tx)

		record, err := cartRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		lines, err := cartRepo.ListItems(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
		}

		user, err := users.NewRepository(tx).FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		total := decimal.Zero
		for _, line := range lines {
			if line.Product == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": line.ProductID})
			}
			total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order, err := ordersRepo.CreateOrder(ctx, &models.Order{
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: user.Address,
		})
		if err != nil {
			return stepErr(err, StepOrderCreate, "Failed to create order")
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				OrderID:         order.ID,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: line.Product.Price,
			})
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return stepErr(err, StepOrderItems, "Failed to create order items")
		}

		for _, line := range lines {
			ok, err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return stepErr(err, StepStockDecrement, "Failed to update stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict, insufficientStockMessage).
					WithDetail("step", StepStockDecrement).
					WithDetail("product_id", line.ProductID).
					WithDetail("available", line.Product.StockQuantity).
					WithDetail("requested", line.Quantity)
			}
		}

		if _, err := cartRepo.Clear(ctx, record.ID); err != nil {
			return stepErr(err, StepCartClear, "Failed to clear cart")
		}

		for i := range items {
			items[i].Product = lines[i].Product
		}
		order.Items = items
		result = orders.NewOrderDTO(order)
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) && s.metrics != nil {
			s.metrics.InsufficientStock()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrderPlaced(len(result.Items))
	}
	if s.catalog != nil {
		if err := s.catalog.Invalidate(ctx); err != nil && s.logger != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "checkout.catalog_invalidate_failed")
		}
	}
	if s.logger != nil {
		s.logger.Info(s.logger.WithOrderID(ctx, result.ID.String()), "checkout.order_placed")
	}
	return &result, nil
}

func stepErr(err error, step, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message).WithDetail("step", step)
}
