package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Service reads and writes product reviews.
type Service interface {
	List(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
	Create(ctx context.Context, userID, productID uuid.UUID, req CreateRequest) (*ReviewDTO, error)
}

type reviewRepository interface {
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductReview, error)
	Create(ctx context.Context, review *models.ProductReview) error
}

type productChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo     reviewRepository
	products productChecker
}

func NewService(repo reviewRepository, products productChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repo is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repo is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) List(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.repo.ListForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newReviewDTO(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, req CreateRequest) (*ReviewDTO, error) {
	if req.Rating < MinRating || req.Rating > MaxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	ok, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	review := &models.ProductReview{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
	}
	if req.ReviewText != nil {
		if text := strings.TrimSpace(*req.ReviewText); text != "" {
			review.ReviewText = &text
		}
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	dto := newReviewDTO(*review)
	return &dto, nil
}
