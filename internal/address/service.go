package address

import (
	"context"
	"strings"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/maps"
	"github.com/angelmondragon/vapevault-backend/pkg/types"
)

// Service backs the address picker and the checkout/profile address check.
type Service interface {
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Resolve(ctx context.Context, req ResolveRequest) (types.Address, error)
	// Verify accepts raw only when it equals the geocoder's formatted address,
	// which holds when the shopper picked a suggestion unchanged.
	Verify(ctx context.Context, raw string) (string, error)
}

// Places is the geocoder. *maps.Client implements it.
type Places interface {
	Autocomplete(ctx context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error)
	ResolvePlace(ctx context.Context, placeID string) (*maps.PlaceDetails, error)
	SearchText(ctx context.Context, query string) (*maps.PlaceDetails, error)
}

type SuggestRequest struct {
	Query    string
	Country  string
	Language string
}

type ResolveRequest struct {
	PlaceID string
}

type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

var (
	errInvalidAddress = pkgerrors.New(pkgerrors.CodeValidation, "Please select a valid address.")
	errNoGeocoder     = pkgerrors.New(pkgerrors.CodeDependency, "address lookup is not configured")
)

type service struct {
	places Places
}

// NewService accepts a nil geocoder; every call then fails with a dependency
// error.
func NewService(places Places) Service {
	return &service{places: places}
}

func (s *service) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	if s.places == nil {
		return nil, errNoGeocoder
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required").WithDetail("field", "query")
	}

	ask := maps.AutocompleteRequest{Input: query, LanguageCode: strings.TrimSpace(req.Language)}
	if country := strings.ToUpper(strings.TrimSpace(req.Country)); country != "" {
		ask.IncludedRegionCodes = []string{country}
	}
	found, err := s.places.Autocomplete(ctx, ask)
	if err != nil {
		return nil, err
	}

	out := make([]Suggestion, len(found))
	for i, f := range found {
		out[i] = Suggestion{PlaceID: f.PlaceID, Description: f.Description}
	}
	return out, nil
}

func (s *service) Resolve(ctx context.Context, req ResolveRequest) (types.Address, error) {
	if s.places == nil {
		return types.Address{}, errNoGeocoder
	}
	id := strings.TrimSpace(req.PlaceID)
	if id == "" {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "place_id is required").WithDetail("field", "place_id")
	}
	place, err := s.places.ResolvePlace(ctx, id)
	if err != nil {
		return types.Address{}, err
	}
	return toAddress(place)
}

func (s *service) Verify(ctx context.Context, raw string) (string, error) {
	want := strings.TrimSpace(raw)
	if want == "" {
		return "", errInvalidAddress
	}
	if s.places == nil {
		return "", errNoGeocoder
	}
	place, err := s.places.SearchText(ctx, want)
	if err != nil {
		return "", err
	}
	if place == nil || place.FormattedAddress != want {
		return "", errInvalidAddress
	}
	return place.FormattedAddress, nil
}
