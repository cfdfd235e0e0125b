package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

type SortBy string

const (
	SortNone      SortBy = ""
	SortNewest    SortBy = "newest"
	SortPriceLow  SortBy = "price-low"
	SortPriceHigh SortBy = "price-high"
	SortName      SortBy = "name"
)

// Category shortcuts understood by the category dispatch stage. Any other
// value is matched literally against Product.Category.
const (
	CategoryAll         = "all"
	CategoryNewArrivals = "new-arrivals"
	CategorySale        = "sale"
	CategoryMen         = "men"
	CategoryWomen       = "women"
)

const GenderAll = "all"

// FilterSpec is the structured catalog query. Every field is optional.
type FilterSpec struct {
	Category    string           `json:"category,omitempty"`
	Subcategory string           `json:"subcategory,omitempty"`
	Gender      string           `json:"gender,omitempty"`
	PriceMin    *decimal.Decimal `json:"priceMin,omitempty"`
	PriceMax    *decimal.Decimal `json:"priceMax,omitempty"`
	Colors      []string         `json:"colors,omitempty"`
	Sizes       []string         `json:"sizes,omitempty"`
	SortBy      SortBy           `json:"sortBy,omitempty"`
	SearchQuery string           `json:"searchQuery,omitempty"`
}

// SearchMode reports whether s runs as a free-text search. Search
// replaces structural filtering and sorting entirely.
func (s FilterSpec) SearchMode() bool {
	return strings.TrimSpace(s.SearchQuery) != ""
}

// NormalizedQuery is the lower-cased, trimmed search text.
func (s FilterSpec) NormalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(s.SearchQuery))
}

// Mode is "search" or "filter", used as a metrics label.
func (s FilterSpec) Mode() string {
	if s.SearchMode() {
		return "search"
	}
	return "filter"
}

func (s FilterSpec) category() string {
	if s.Category == "" {
		return CategoryAll
	}
	return s.Category
}
