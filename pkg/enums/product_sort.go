package enums

import "fmt"

// ProductSort is the ordering applied to catalog search results.
type ProductSort string

const (
	ProductSortNone      ProductSort = ""
	ProductSortPriceAsc  ProductSort = "priceAsc"
	ProductSortPriceDesc ProductSort = "priceDesc"
	ProductSortNameAsc   ProductSort = "nameAsc"
	ProductSortNameDesc  ProductSort = "nameDesc"
)

var validProductSorts = []ProductSort{
	ProductSortNone,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortNameAsc,
	ProductSortNameDesc,
}

// String implements fmt.Stringer.
func (s ProductSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductSort.
func (s ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort.
func ParseProductSort(value string) (ProductSort, error) {
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
