package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/internal/wishlist"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

type toggleWishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

func WishlistList(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (map[string]any, error) {
		items, err := svc.List(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"items": items}, nil
	})
}

// WishlistToggle likes a product, or unlikes it when already liked.
func WishlistToggle(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*wishlist.ToggleResult, error) {
		body, err := decodeBody[toggleWishlistRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.Toggle(r.Context(), userID, body.ProductID)
	})
}

func WishlistRemoveItem(svc wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (map[string]string, error) {
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "removed"}, nil
	})
}
