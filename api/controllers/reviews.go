package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/api/responses"
	"github.com/angelmondragon/vapevault-backend/internal/reviews"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// ReviewsList is public.
func ReviewsList(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"reviews": list})
	}
}

func ReviewsCreate(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return forShopper(logg, http.StatusCreated, func(r *http.Request, userID uuid.UUID) (*reviews.ReviewDTO, error) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			return nil, err
		}
		body, err := decodeBody[reviews.CreateRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.Create(r.Context(), userID, productID, body)
	})
}
