package address

import (
	"strings"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/maps"
	"github.com/angelmondragon/vapevault-backend/pkg/types"
)

// cityKinds are tried in order; UK addresses use postal_town and some rural
// US ones only carry a county.
var cityKinds = []string{"locality", "postal_town", "administrative_area_level_2"}

func firstComponent(place *maps.PlaceDetails, kinds ...string) string {
	for _, kind := range kinds {
		if v, ok := place.Component(kind); ok {
			return v
		}
	}
	return ""
}

func incomplete(part string) error {
	return pkgerrors.Newf(pkgerrors.CodeDependency, "resolved place has no %s", part)
}

// toAddress flattens Places address components into a shipping address.
func toAddress(place *maps.PlaceDetails) (types.Address, error) {
	if place == nil {
		return types.Address{}, incomplete("details")
	}
	if place.Location == (maps.LatLng{}) {
		return types.Address{}, incomplete("location")
	}

	line1 := strings.TrimSpace(firstComponent(place, "street_number") + " " + firstComponent(place, "route"))
	if line1 == "" {
		head, _, _ := strings.Cut(place.FormattedAddress, ",")
		line1 = strings.TrimSpace(head)
	}

	addr := types.Address{
		Formatted:  place.FormattedAddress,
		Line1:      line1,
		City:       firstComponent(place, cityKinds...),
		State:      firstComponent(place, "administrative_area_level_1"),
		PostalCode: firstComponent(place, "postal_code"),
		Country:    firstComponent(place, "country"),
		Lat:        place.Location.Latitude,
		Lng:        place.Location.Longitude,
	}
	if unit := firstComponent(place, "subpremise"); unit != "" {
		addr.Line2 = &unit
	}
	if addr.Country == "" {
		addr.Country = "US"
	}

	for _, required := range []struct{ name, value string }{
		{"street address", addr.Line1},
		{"city", addr.City},
		{"state", addr.State},
		{"postal code", addr.PostalCode},
	} {
		if required.value == "" {
			return types.Address{}, incomplete(required.name)
		}
	}
	return addr, nil
}
