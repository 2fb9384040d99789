package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/internal/orders"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// OrdersList returns the caller's order history, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (map[string]any, error) {
		list, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"orders": list}, nil
	})
}

// OrdersGet answers 404 for orders the caller does not own.
func OrdersGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (*orders.OrderDTO, error) {
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		return svc.GetForUser(r.Context(), userID, orderID)
	})
}
