package maps

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

const (
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
	placeFieldMask        = "id,formattedAddress,location,addressComponents"
	searchTextFieldMask   = "places.id,places.formattedAddress,places.location"
)

// AutocompleteRequest is the places:autocomplete body.
type AutocompleteRequest struct {
	Input               string   `json:"input"`
	IncludedRegionCodes []string `json:"includedRegionCodes,omitempty"`
	LanguageCode        string   `json:"languageCode,omitempty"`
}

type AutocompleteSuggestion struct {
	PlaceID     string
	Description string
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AddressComponent struct {
	LongName  string   `json:"longText"`
	ShortName string   `json:"shortText"`
	Types     []string `json:"types"`
}

// PlaceDetails is a resolved place. AddressComponents is empty for text
// search results.
type PlaceDetails struct {
	PlaceID           string             `json:"id"`
	FormattedAddress  string             `json:"formattedAddress"`
	Location          LatLng             `json:"location"`
	AddressComponents []AddressComponent `json:"addressComponents"`
}

// Component returns the long name of the first component tagged kind.
func (p *PlaceDetails) Component(kind string) (string, bool) {
	for _, comp := range p.AddressComponents {
		if comp.LongName == "" {
			continue
		}
		for _, t := range comp.Types {
			if t == kind {
				return comp.LongName, true
			}
		}
	}
	return "", false
}

func (c *Client) Autocomplete(ctx context.Context, req AutocompleteRequest) ([]AutocompleteSuggestion, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "autocomplete input is required")
	}
	var resp struct {
		Suggestions []struct {
			PlacePrediction *struct {
				PlaceID string `json:"placeId"`
				Text    struct {
					Text string `json:"text"`
				} `json:"text"`
			} `json:"placePrediction"`
		} `json:"suggestions"`
	}
	if err := c.call(ctx, "autocomplete", http.MethodPost, "places:autocomplete", autocompleteFieldMask, req, &resp); err != nil {
		return nil, err
	}

	out := make([]AutocompleteSuggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		// query predictions carry no place id and cannot be resolved
		if s.PlacePrediction == nil || s.PlacePrediction.PlaceID == "" {
			continue
		}
		out = append(out, AutocompleteSuggestion{PlaceID: s.PlacePrediction.PlaceID, Description: s.PlacePrediction.Text.Text})
	}
	return out, nil
}

func (c *Client) ResolvePlace(ctx context.Context, placeID string) (*PlaceDetails, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place ID is required")
	}
	var place PlaceDetails
	if err := c.call(ctx, "place details", http.MethodGet, "places/"+url.PathEscape(placeID), placeFieldMask, nil, &place); err != nil {
		return nil, err
	}
	return &place, nil
}

// SearchText geocodes free text and returns the best match, or nil when
// nothing matched.
func (c *Client) SearchText(ctx context.Context, query string) (*PlaceDetails, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	body := struct {
		TextQuery string `json:"textQuery"`
		PageSize  int    `json:"pageSize"`
	}{query, 1}
	var resp struct {
		Places []PlaceDetails `json:"places"`
	}
	if err := c.call(ctx, "text search", http.MethodPost, "places:searchText", searchTextFieldMask, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Places) == 0 {
		return nil, nil
	}
	return &resp.Places[0], nil
}
