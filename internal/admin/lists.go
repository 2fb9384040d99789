package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/internal/orders"
	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/pagination"
)

func (s *service) ListOrders(ctx context.Context, params orders.ListParams) (*orders.OrderPage, error) {
	return s.orders.ListAll(ctx, params)
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params) (*UserPage, error) {
	rows, next, err := s.users.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Coded(pkgerrors.CodeInternal, err, "list users")
	}
	return &UserPage{Users: users.FromModels(rows), NextCursor: next}, nil
}

// ListProducts returns the full catalog by name, bypassing the storefront
// cache.
func (s *service) ListProducts(ctx context.Context) ([]catalog.ProductDTO, error) {
	rows, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return catalog.NewProductDTOs(rows), nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*catalog.ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}

	product, err := s.products.Create(ctx, &models.Product{
		CategoryID:    input.CategoryID,
		Name:          name,
		Brand:         strings.TrimSpace(input.Brand),
		Description:   input.Description,
		Price:         input.Price,
		ImageURL:      input.ImageURL,
		Features:      pq.StringArray(nonNil(input.Features)),
		Tags:          pq.StringArray(nonNil(input.Tags)),
		StockQuantity: input.StockQuantity,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	s.invalidateCatalog(ctx)
	dto := catalog.NewProductDTO(product)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Product not found", "delete product")
	}
	s.invalidateCatalog(ctx)
	return nil
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internal)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
