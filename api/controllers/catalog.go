package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/api/responses"
	"github.com/angelmondragon/vapevault-backend/api/validators"
	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// CatalogProducts serves the product grid. With a q parameter it runs the
// capped search; without one it browses the filtered catalog.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseSearchParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var products []catalog.ProductDTO
		if r.URL.Query().Has("q") {
			products, err = svc.Search(r.Context(), params)
		} else {
			products, err = svc.Browse(r.Context(), params)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

func CatalogBrands(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brands, err := svc.ListBrands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"brands": brands})
	}
}

func parseSearchParams(r *http.Request) (catalog.SearchParams, error) {
	query := r.URL.Query()

	sort, err := enums.ParseProductSort(query.Get("sort"))
	if err != nil {
		return catalog.SearchParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetail("field", "sort")
	}

	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 500)
	if err != nil {
		return catalog.SearchParams{}, err
	}

	params := catalog.SearchParams{
		Query: validators.SanitizeString(query.Get("q"), 200),
		Brand: strings.TrimSpace(query.Get("brand")),
		Sort:  sort,
		Limit: limit,
	}

	if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return catalog.SearchParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id").WithDetail("field", "category_id")
		}
		params.CategoryID = &id
	}
	return params, nil
}
