package store

import (
	"fmt"
	"strings"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/lib/pq"
)

// productFilter translates a FilterSpec into a WHERE clause. The clause
// only prunes; it never sorts or drops rows the engine would keep, so the
// result is always a superset of the engine's answer.
type productFilter struct {
	conds []string
	args  []any
}

func (f *productFilter) add(cond string, args ...any) {
	for _, a := range args {
		f.args = append(f.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(f.args)), 1)
	}
	f.conds = append(f.conds, cond)
}

func (f *productFilter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func buildProductFilter(spec catalog.FilterSpec) *productFilter {
	f := &productFilter{}

	if spec.SearchMode() {
		pattern := "%" + escapeLike(spec.NormalizedQuery()) + "%"
		f.add(`(name ILIKE ? OR description ILIKE ? OR category ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE ?))`,
			pattern, pattern, pattern, pattern)
		return f
	}

	switch spec.Category {
	case "", catalog.CategoryAll:
	case catalog.CategoryNewArrivals:
		f.add("new_arrival")
	case catalog.CategorySale:
		f.add("discount_percent > 0")
	case catalog.CategoryMen, catalog.CategoryWomen:
		f.add("gender IN (?, 'unisex')", spec.Category)
	default:
		f.add("category = ?", spec.Category)
	}

	if spec.Gender != "" && spec.Gender != catalog.GenderAll {
		f.add("gender IN (?, 'unisex')", spec.Gender)
	}
	if spec.Subcategory != "" {
		f.add("subcategory = ?", spec.Subcategory)
	}
	if spec.PriceMin != nil {
		f.add("price >= ?", spec.PriceMin.String())
	}
	if spec.PriceMax != nil {
		f.add("price <= ?", spec.PriceMax.String())
	}
	if len(spec.Colors) > 0 {
		f.add("colors && ?::text[]", pq.Array(spec.Colors))
	}
	if len(spec.Sizes) > 0 {
		f.add("sizes && ?::text[]", pq.Array(spec.Sizes))
	}
	return f
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
