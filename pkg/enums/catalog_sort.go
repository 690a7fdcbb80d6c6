package enums

import "fmt"

// CatalogSort is the ordering applied to a filtered product listing.
type CatalogSort string

const (
	CatalogSortName         CatalogSort = "name"
	CatalogSortRating       CatalogSort = "rating"
	CatalogSortNewest       CatalogSort = "newest"
	CatalogSortLowestPrice  CatalogSort = "lowest_price"
	CatalogSortHighestPrice CatalogSort = "highest_price"
	CatalogSortMostSuitable CatalogSort = "most_suitable"
)

var validCatalogSorts = []CatalogSort{
	CatalogSortName,
	CatalogSortRating,
	CatalogSortNewest,
	CatalogSortLowestPrice,
	CatalogSortHighestPrice,
	CatalogSortMostSuitable,
}

// String implements fmt.Stringer.
func (c CatalogSort) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CatalogSort.
func (c CatalogSort) IsValid() bool {
	for _, candidate := range validCatalogSorts {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCatalogSort converts raw input into a CatalogSort. Empty input maps to
// CatalogSortMostSuitable.
func ParseCatalogSort(value string) (CatalogSort, error) {
	if value == "" {
		return CatalogSortMostSuitable, nil
	}
	for _, candidate := range validCatalogSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog sort %q", value)
}
