package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/internal/cart"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type stepCartItemRequest struct {
	Delta int `json:"delta" validate:"required,oneof=-1 1"`
}

// Every cart endpoint answers with the full cart so the drawer can re-render.

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*cart.CartDTO, error) {
		return svc.GetCart(r.Context(), userID)
	})
}

// CartAddItem adds one unit of a product.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*cart.CartDTO, error) {
		body, err := decodeBody[addCartItemRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), userID, body.ProductID)
	})
}

// CartUpdateItem steps a line's quantity by one in either direction.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*cart.CartDTO, error) {
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		body, err := decodeBody[stepCartItemRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.UpdateQuantity(r.Context(), userID, itemID, body.Delta)
	})
}

func CartDeleteItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*cart.CartDTO, error) {
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			return nil, err
		}
		return svc.DeleteItem(r.Context(), userID, itemID)
	})
}
