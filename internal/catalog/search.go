package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/pkg/enums"
)

// SearchParams narrows the in-memory catalog. Brand and CategoryID are exact
// filters; Query matches name or any tag case-insensitively.
type SearchParams struct {
	Query      string
	Brand      string
	CategoryID *uuid.UUID
	Sort       enums.ProductSort
	Limit      int
}

// filterProducts applies the search filters and ordering to products. A blank
// query yields no results unless browse is set.
func filterProducts(products []ProductDTO, params SearchParams, browse bool) []ProductDTO {
	needle := strings.ToLower(strings.TrimSpace(params.Query))
	if needle == "" && !browse {
		return []ProductDTO{}
	}

	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		if needle != "" && !matchesQuery(p, needle) {
			continue
		}
		if params.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *params.CategoryID) {
			continue
		}
		if params.Brand != "" && p.Brand != params.Brand {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, params.Sort)

	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out
}

func matchesQuery(p ProductDTO, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func sortProducts(products []ProductDTO, order enums.ProductSort) {
	var less func(a, b ProductDTO) bool
	switch order {
	case enums.ProductSortPriceAsc:
		less = func(a, b ProductDTO) bool { return a.Price.LessThan(b.Price) }
	case enums.ProductSortPriceDesc:
		less = func(a, b ProductDTO) bool { return a.Price.GreaterThan(b.Price) }
	case enums.ProductSortNameAsc:
		less = func(a, b ProductDTO) bool { return compareNames(a.Name, b.Name) < 0 }
	case enums.ProductSortNameDesc:
		less = func(a, b ProductDTO) bool { return compareNames(a.Name, b.Name) > 0 }
	default:
		return
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
