package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
)

// ReviewDTO is a product review as rendered on the product page.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	UserID     uuid.UUID `json:"user_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Rating     int       `json:"rating"`
	ReviewText *string   `json:"review_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateRequest is the body of POST /products/{productId}/reviews.
type CreateRequest struct {
	Rating     int     `json:"rating" validate:"required,min=1,max=5"`
	ReviewText *string `json:"review_text" validate:"omitempty,max=2000"`
}

func newReviewDTO(r models.ProductReview) ReviewDTO {
	dto := ReviewDTO{
		ID:         r.ID,
		ProductID:  r.ProductID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		CreatedAt:  r.CreatedAt,
	}
	if r.User != nil {
		dto.AuthorName = r.User.FullName
	}
	return dto
}
