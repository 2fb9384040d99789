package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Toggle(ctx context.Context, userID, productID uuid.UUID) (*ToggleResult, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type wishlistRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error)
	AddItem(ctx context.Context, wishlistID, productID uuid.UUID) error
	RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) (bool, error)
	RemoveItem(ctx context.Context, wishlistID, itemID uuid.UUID) (bool, error)
	ListItems(ctx context.Context, wishlistID uuid.UUID) ([]models.WishlistItem, error)
}

type productChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo     wishlistRepository
	products productChecker
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo wishlistRepository, products productChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repo is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	wishlist, err := s.wishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, wishlist.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist items")
	}
	return newItemDTOs(items), nil
}

// Toggle removes productID when it is already liked and adds it otherwise.
func (s *service) Toggle(ctx context.Context, userID, productID uuid.UUID) (*ToggleResult, error) {
	wishlist, err := s.wishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.RemoveProduct(ctx, wishlist.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	if removed {
		return &ToggleResult{ProductID: productID, Wishlisted: false}, nil
	}

	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err := s.repo.AddItem(ctx, wishlist.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}
	return &ToggleResult{ProductID: productID, Wishlisted: true}, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	wishlist, err := s.wishlist(ctx, userID)
	if err != nil {
		return err
	}
	removed, err := s.repo.RemoveItem(ctx, wishlist.ID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

func (s *service) wishlist(ctx context.Context, userID uuid.UUID) (*models.Wishlist, error) {
	wishlist, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wishlist")
	}
	return wishlist, nil
}
