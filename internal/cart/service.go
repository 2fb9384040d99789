package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

// Service implements the shopper's cart actions. Every mutation keeps
// 0 < quantity <= product.stock_quantity for the touched line.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, delta int) (*CartDTO, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
}

type cartRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     cartRepository
	products productLoader
}

func NewService(repo cartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	existing, err := s.repo.FindItemByProduct(ctx, cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	current := 0
	if existing != nil {
		current = existing.Quantity
	}
	if current+1 > product.StockQuantity {
		return nil, insufficientStock(product, current+1, "Only %d left in stock")
	}

	if existing != nil {
		err = s.repo.UpdateItemQuantity(ctx, existing.ID, current+1)
	} else {
		err = s.repo.CreateItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: 1})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart item")
	}
	return s.snapshot(ctx, cart)
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, delta int) (*CartDTO, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.item(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}

	next := item.Quantity + delta
	if next <= 0 {
		return s.delete(ctx, cart, itemID)
	}
	if item.Product == nil || next > item.Product.StockQuantity {
		return nil, insufficientStock(item.Product, next, "Only %d available in stock")
	}
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.snapshot(ctx, cart)
}

func (s *service) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.delete(ctx, cart, itemID)
}

func (s *service) delete(ctx context.Context, cart *models.Cart, itemID uuid.UUID) (*CartDTO, error) {
	deleted, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	if !deleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.snapshot(ctx, cart)
}

func (s *service) cart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func (s *service) item(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindItem(ctx, cartID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	return item, nil
}

func (s *service) snapshot(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	return newCartDTO(cart, items), nil
}

func insufficientStock(product *models.Product, requested int, format string) error {
	available := 0
	var productID uuid.UUID
	if product != nil {
		available = product.StockQuantity
		productID = product.ID
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(format, available)).
		WithDetails(map[string]any{
			"product_id": productID,
			"available":  available,
			"requested":  requested,
		})
}
