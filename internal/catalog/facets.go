package catalog

import (
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/shopspring/decimal"
)

// Facets summarises a catalog for the filter sidebar. Value lists keep the
// order in which values first appear in the catalog.
type Facets struct {
	PriceMin      decimal.Decimal `json:"priceMin"`
	PriceMax      decimal.Decimal `json:"priceMax"`
	Categories    []string        `json:"categories"`
	Subcategories []string        `json:"subcategories"`
	Colors        []string        `json:"colors"`
	Sizes         []string        `json:"sizes"`
	InStock       int             `json:"inStock"`
	OutOfStock    int             `json:"outOfStock"`
}

func ComputeFacets(catalog []product.Product) Facets {
	f := Facets{
		Categories:    []string{},
		Subcategories: []string{},
		Colors:        []string{},
		Sizes:         []string{},
	}
	seen := map[string]map[string]bool{
		"category": {}, "subcategory": {}, "color": {}, "size": {},
	}
	add := func(kind string, dst *[]string, values ...string) {
		for _, v := range values {
			if v == "" || seen[kind][v] {
				continue
			}
			seen[kind][v] = true
			*dst = append(*dst, v)
		}
	}

	for i, p := range catalog {
		if i == 0 || p.Price.LessThan(f.PriceMin) {
			f.PriceMin = p.Price
		}
		if i == 0 || p.Price.GreaterThan(f.PriceMax) {
			f.PriceMax = p.Price
		}
		if p.InStock {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		add("category", &f.Categories, p.Category)
		add("subcategory", &f.Subcategories, p.Subcategory)
		add("color", &f.Colors, p.Colors...)
		add("size", &f.Sizes, p.Sizes...)
	}
	return f
}
