package store

import (
	"testing"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildProductFilter_Empty(t *testing.T) {
	f := buildProductFilter(catalog.FilterSpec{Category: "all", Gender: "all", SortBy: catalog.SortName})

	assert.Equal(t, "", f.where())
	assert.Empty(t, f.args)
}

func TestBuildProductFilter_Category(t *testing.T) {
	tests := []struct {
		category string
		where    string
		args     []any
	}{
		{"new-arrivals", " WHERE new_arrival", nil},
		{"sale", " WHERE discount_percent > 0", nil},
		{"men", " WHERE gender IN ($1, 'unisex')", []any{"men"}},
		{"women", " WHERE gender IN ($1, 'unisex')", []any{"women"}},
		{"outerwear", " WHERE category = $1", []any{"outerwear"}},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			f := buildProductFilter(catalog.FilterSpec{Category: tt.category})

			assert.Equal(t, tt.where, f.where())
			assert.Equal(t, tt.args, f.args)
		})
	}
}

func TestBuildProductFilter_AllStructuralFields(t *testing.T) {
	lo := decimal.RequireFromString("10.50")
	hi := decimal.NewFromInt(100)

	f := buildProductFilter(catalog.FilterSpec{
		Category:    "shirts",
		Gender:      "women",
		Subcategory: "formal",
		PriceMin:    &lo,
		PriceMax:    &hi,
		Colors:      []string{"Red", "Blue"},
		Sizes:       []string{"M"},
		SortBy:      catalog.SortPriceHigh,
	})

	assert.Equal(t,
		" WHERE category = $1 AND gender IN ($2, 'unisex') AND subcategory = $3 AND price >= $4 AND price <= $5"+
			" AND colors && $6::text[] AND sizes && $7::text[]",
		f.where())
	assert.Equal(t, []any{
		"shirts", "women", "formal", "10.5", "100",
		pq.Array([]string{"Red", "Blue"}), pq.Array([]string{"M"}),
	}, f.args)
}

func TestBuildProductFilter_SearchIgnoresStructure(t *testing.T) {
	f := buildProductFilter(catalog.FilterSpec{
		SearchQuery: "  50%_Off ",
		Category:    "sale",
		Colors:      []string{"Red"},
	})

	assert.Contains(t, f.where(), "name ILIKE $1")
	assert.Contains(t, f.where(), "t.tag ILIKE $4")
	assert.NotContains(t, f.where(), "discount_percent")
	assert.Len(t, f.args, 4)
	assert.Equal(t, `%50\%\_off%`, f.args[0])
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
}
