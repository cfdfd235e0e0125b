package catalog

import (
	"slices"
	"strings"

	"github.com/example/ec-storefront/internal/domain/product"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultRelatedLimit = 4

// Query returns the products of catalog matching spec, in result order.
// It never mutates catalog and always returns a non-nil slice.
func Query(catalog []product.Product, spec FilterSpec) []product.Product {
	if spec.SearchMode() {
		return search(catalog, spec.NormalizedQuery())
	}

	result := make([]product.Product, 0, len(catalog))
	for _, p := range catalog {
		if matchesStructure(p, spec) {
			result = append(result, p)
		}
	}
	sortProducts(result, spec.SortBy)
	return result
}

func search(catalog []product.Product, q string) []product.Product {
	result := make([]product.Product, 0)
	for _, p := range catalog {
		if matchesText(p, q) {
			result = append(result, p)
		}
	}
	return result
}

func matchesText(p product.Product, q string) bool {
	if containsFold(p.Name, q) || containsFold(p.Description, q) || containsFold(p.Category, q) {
		return true
	}
	for _, tag := range p.Tags {
		if containsFold(tag, q) {
			return true
		}
	}
	return false
}

// containsFold expects q already lower-cased.
func containsFold(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

func matchesStructure(p product.Product, spec FilterSpec) bool {
	return matchesCategory(p, spec.category()) &&
		matchesGender(p, spec.Gender) &&
		(spec.Subcategory == "" || p.Subcategory == spec.Subcategory) &&
		matchesPrice(p, spec) &&
		intersects(p.Colors, spec.Colors) &&
		intersects(p.Sizes, spec.Sizes)
}

func matchesCategory(p product.Product, category string) bool {
	switch category {
	case CategoryAll:
		return true
	case CategoryNewArrivals:
		return p.NewArrival
	case CategorySale:
		return p.OnSale()
	case CategoryMen:
		return p.ServesGender(product.GenderMen)
	case CategoryWomen:
		return p.ServesGender(product.GenderWomen)
	default:
		return p.Category == category
	}
}

func matchesGender(p product.Product, gender string) bool {
	if gender == "" || gender == GenderAll {
		return true
	}
	return p.ServesGender(product.Gender(gender))
}

func matchesPrice(p product.Product, spec FilterSpec) bool {
	if spec.PriceMin != nil && p.Price.LessThan(*spec.PriceMin) {
		return false
	}
	if spec.PriceMax != nil && p.Price.GreaterThan(*spec.PriceMax) {
		return false
	}
	return true
}

// intersects is true when want is empty or shares at least one value with have.
func intersects(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// sortProducts sorts in place and stably; unknown keys leave input order.
func sortProducts(products []product.Product, by SortBy) {
	switch by {
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b product.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b product.Product) int {
			return b.Price.Cmp(a.Price)
		})
	case SortName:
		col := collate.New(language.English)
		slices.SortStableFunc(products, func(a, b product.Product) int {
			return col.CompareString(a.Name, b.Name)
		})
	case SortNewest:
		slices.SortStableFunc(products, func(a, b product.Product) int {
			switch {
			case a.ID > b.ID:
				return -1
			case a.ID < b.ID:
				return 1
			}
			return 0
		})
	}
}

// Related returns up to limit products sharing the anchor's category or
// gender, in catalog order, excluding the anchor. An unknown anchor yields
// an empty result. limit <= 0 means DefaultRelatedLimit.
func Related(catalog []product.Product, productID int64, limit int) []product.Product {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	idx := slices.IndexFunc(catalog, func(p product.Product) bool { return p.ID == productID })
	if idx < 0 {
		return []product.Product{}
	}
	anchor := catalog[idx]

	result := make([]product.Product, 0, limit)
	for _, p := range catalog {
		if len(result) == limit {
			break
		}
		if p.ID == anchor.ID {
			continue
		}
		if p.Category == anchor.Category || p.Gender == anchor.Gender {
			result = append(result, p)
		}
	}
	return result
}

func Featured(catalog []product.Product) []product.Product {
	return selectWhere(catalog, func(p product.Product) bool { return p.Featured })
}

func NewArrivals(catalog []product.Product) []product.Product {
	return selectWhere(catalog, func(p product.Product) bool { return p.NewArrival })
}

func SaleItems(catalog []product.Product) []product.Product {
	return selectWhere(catalog, product.Product.OnSale)
}

func selectWhere(catalog []product.Product, keep func(product.Product) bool) []product.Product {
	result := make([]product.Product, 0)
	for _, p := range catalog {
		if keep(p) {
			result = append(result, p)
		}
	}
	return result
}
