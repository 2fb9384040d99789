package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/internal/orders"
	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/pagination"
)

const defaultStatsRetryDelay = 350 * time.Millisecond

// Job labels recorded for the batch loops.
const (
	JobOrderStatuses = "admin_order_statuses"
	JobUserEdits     = "admin_user_edits"
	JobProductEdits  = "admin_product_edits"
)

// Service is the admin console backend.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Analytics(ctx context.Context, now time.Time) (*Analytics, error)

	ListOrders(ctx context.Context, params orders.ListParams) (*orders.OrderPage, error)
	ApplyOrderStatuses(ctx context.Context, changes []OrderStatusChange) (*BatchResult, error)

	ListUsers(ctx context.Context, params pagination.Params) (*UserPage, error)
	ApplyUserEdits(ctx context.Context, edits []UserEdit) (*BatchResult, error)

	ListProducts(ctx context.Context) ([]catalog.ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*catalog.ProductDTO, error)
	ApplyProductEdits(ctx context.Context, edits []ProductEdit) (*BatchResult, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// UserPage is one page of the admin user list.
type UserPage struct {
	Users      []users.UserDTO `json:"users"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type orderStats interface {
	Count(ctx context.Context, status *enums.OrderStatus) (int64, error)
	Totals(ctx context.Context) (orders.Totals, error)
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	ListSince(ctx context.Context, since time.Time) ([]orders.OrderSummaryRow, error)
}

type orderManager interface {
	ListAll(ctx context.Context, params orders.ListParams) (*orders.OrderPage, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, raw string) (*orders.OrderDTO, error)
}

type userStore interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, string, error)
	UpdateAdminFields(ctx context.Context, id uuid.UUID, update users.AdminUpdate) (*models.User, error)
}

type productStore interface {
	ListAll(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, cols map[string]any) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type jobTracker interface {
	Track(job string, started time.Time, err error)
}

// ServiceParams bundles admin dependencies. Catalog, Jobs, and Logger are
// optional.
type ServiceParams struct {
	OrderStats      orderStats
	Orders          orderManager
	Users           userStore
	Products        productStore
	Catalog         catalogInvalidator
	Jobs            jobTracker
	Logger          *logger.Logger
	StatsRetryDelay time.Duration
}

type service struct {
	orderStats orderStats
	orders     orderManager
	users      userStore
	products   productStore
	catalog    catalogInvalidator
	jobs       jobTracker
	logger     *logger.Logger
	retryDelay time.Duration
}

func NewService(params ServiceParams) (Service, error) {
	if params.OrderStats == nil {
		return nil, fmt.Errorf("order stats repo required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repo required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repo required")
	}
	delay := params.StatsRetryDelay
	if delay <= 0 {
		delay = defaultStatsRetryDelay
	}
	return &service{
		orderStats: params.OrderStats,
		orders:     params.Orders,
		users:      params.Users,
		products:   params.Products,
		catalog:    params.Catalog,
		jobs:       params.Jobs,
		logger:     params.Logger,
		retryDelay: delay,
	}, nil
}

func (s *service) track(job string, started time.Time, err error) {
	if s.jobs != nil {
		s.jobs.Track(job, started, err)
	}
}

func (s *service) invalidateCatalog(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.Invalidate(ctx); err != nil && s.logger != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "admin.catalog_invalidate_failed")
	}
}
