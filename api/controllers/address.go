package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/vapevault-backend/api/responses"
	"github.com/angelmondragon/vapevault-backend/internal/address"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

type placeLookup struct {
	PlaceID string `json:"place_id" validate:"required"`
}

// AddressSuggest answers the checkout address autocomplete.
func AddressSuggest(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		field := func(name string) string { return strings.TrimSpace(q.Get(name)) }

		found, err := svc.Suggest(r.Context(), address.SuggestRequest{
			Query:    field("query"),
			Country:  field("country"),
			Language: field("language"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"suggestions": found})
	}
}

func AddressResolve(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lookup, err := decodeBody[placeLookup](r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resolved, err := svc.Resolve(r.Context(), address.ResolveRequest{PlaceID: lookup.PlaceID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}
