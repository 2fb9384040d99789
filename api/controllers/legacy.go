package controllers

import (
	"net/http"

	"github.com/angelmondragon/vapevault-backend/api/responses"
	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// The /api/get* endpoints predate the v1 envelope: they answer with the bare
// payload and report failures as {"error": msg}.

func LegacyGetProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteStorefrontError(r.Context(), logg, w, err, "Failed to load products")
			return
		}
		responses.WriteJSON(w, http.StatusOK, products)
	}
}

func LegacyGetProductByName(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetByName(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			responses.WriteStorefrontError(r.Context(), logg, w, err, "Failed to load product")
			return
		}
		responses.WriteJSON(w, http.StatusOK, product)
	}
}

func LegacyGetProductsByBrand(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListByBrand(r.Context(), r.URL.Query().Get("brand"))
		if err != nil {
			responses.WriteStorefrontError(r.Context(), logg, w, err, "Failed to load products")
			return
		}
		responses.WriteJSON(w, http.StatusOK, products)
	}
}
