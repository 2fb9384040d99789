package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/redis"
)

// DefaultSearchLimit caps search results when no limit is configured.
const DefaultSearchLimit = 50

// Service exposes catalog reads. Product lists are served from a read-through
// Redis snapshot that mutations drop with Invalidate.
type Service interface {
	ListAll(ctx context.Context) ([]ProductDTO, error)
	Search(ctx context.Context, params SearchParams) ([]ProductDTO, error)
	Browse(ctx context.Context, params SearchParams) ([]ProductDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListBrands(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	GetByName(ctx context.Context, name string) (*ProductDTO, error)
	ListByBrand(ctx context.Context, brand string) ([]ProductDTO, error)
	Invalidate(ctx context.Context) error
}

type productReader interface {
	ListAll(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBrands(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	ListByBrand(ctx context.Context, brand string) ([]models.Product, error)
}

// ServiceParams bundles catalog dependencies. Cache may be nil.
type ServiceParams struct {
	Repo        productReader
	Cache       redis.CacheStore
	CacheTTL    time.Duration
	SearchLimit int
	Logger      *logger.Logger
}

type service struct {
	repo   productReader
	cache  redis.CacheStore
	ttl    time.Duration
	limit  int
	logger *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	limit := params.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &service{
		repo:   params.Repo,
		cache:  params.Cache,
		ttl:    params.CacheTTL,
		limit:  limit,
		logger: params.Logger,
	}, nil
}

func (s *service) ListAll(ctx context.Context) ([]ProductDTO, error) {
	if cached, ok := s.readCache(ctx); ok {
		return cached, nil
	}

	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	products := NewProductDTOs(rows)
	s.writeCache(ctx, products)
	return products, nil
}

func (s *service) Search(ctx context.Context, params SearchParams) ([]ProductDTO, error) {
	return s.filter(ctx, params, false)
}

func (s *service) Browse(ctx context.Context, params SearchParams) ([]ProductDTO, error) {
	return s.filter(ctx, params, true)
}

func (s *service) filter(ctx context.Context, params SearchParams, browse bool) ([]ProductDTO, error) {
	if !params.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort")
	}
	if params.Limit <= 0 || params.Limit > s.limit {
		params.Limit = s.limit
	}
	if browse {
		params.Limit = 0
	}
	products, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterProducts(products, params, browse), nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return newCategoryDTOs(rows), nil
}

func (s *service) ListBrands(ctx context.Context) ([]string, error) {
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list brands")
	}
	if brands == nil {
		brands = []string{}
	}
	return brands, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) GetByName(ctx context.Context, name string) (*ProductDTO, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing product name")
	}
	product, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "load product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) ListByBrand(ctx context.Context, brand string) ([]ProductDTO, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing brand")
	}
	rows, err := s.repo.ListByBrand(ctx, brand)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products by brand")
	}
	return NewProductDTOs(rows), nil
}

func (s *service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, s.cacheKey()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate catalog cache")
	}
	return nil
}

func (s *service) cacheKey() string {
	return s.cache.CacheKey("catalog", "products")
}

func (s *service) readCache(ctx context.Context) ([]ProductDTO, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cacheKey())
	if err != nil {
		if !redis.IsMiss(err) {
			s.warn(ctx, "catalog.cache_read_failed", err)
		}
		return nil, false
	}
	var products []ProductDTO
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		s.warn(ctx, "catalog.cache_decode_failed", err)
		return nil, false
	}
	return products, true
}

func (s *service) writeCache(ctx context.Context, products []ProductDTO) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	payload, err := json.Marshal(products)
	if err != nil {
		s.warn(ctx, "catalog.cache_encode_failed", err)
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(), string(payload), s.ttl); err != nil {
		s.warn(ctx, "catalog.cache_write_failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), msg)
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internal)
}
