package fixture

import (
	"context"
	"testing"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "categories": [
    {"id": 1, "name": "Men", "slug": "men"},
    {"id": 2, "name": "Women", "slug": "women"}
  ],
  "products": [
    {"id": 3, "name": "Tee", "category": "shirts", "gender": "unisex", "price": 20,
     "images": ["a.jpg"], "sizes": ["M"], "colors": ["White"], "inStock": true},
    {"id": 1, "name": "Blazer", "category": "outerwear", "gender": "men", "price": "180.00",
     "discountPercent": 10, "images": ["b.jpg"], "sizes": ["L"], "colors": ["Navy"], "inStock": true}
  ]
}`

// Compile-time interface checks
var (
	_ catalog.Source         = (*Catalog)(nil)
	_ catalog.CategorySource = (*Catalog)(nil)
)

func TestParse_SortsByID(t *testing.T) {
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	products, err := c.FetchAll(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(3), products[1].ID)
	assert.Equal(t, "180", products[0].Price.String())
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"products": [`},
		{"unknown field", `{"products": [], "banner": "x"}`},
		{"invalid product", `{"products": [{"id": 1, "name": "", "category": "x", "gender": "men", "price": 1,
			"images": ["a"], "sizes": ["M"], "colors": ["Red"]}]}`},
		{"negative price", `{"products": [{"id": 1, "name": "A", "category": "x", "gender": "men", "price": -1,
			"images": ["a"], "sizes": ["M"], "colors": ["Red"]}]}`},
		{"sub-cent price", `{"products": [{"id": 1, "name": "A", "category": "x", "gender": "men", "price": 19.995,
			"images": ["a"], "sizes": ["M"], "colors": ["Red"]}]}`},
		{"duplicate id", `{"products": [
			{"id": 1, "name": "A", "category": "x", "gender": "men", "price": 1, "images": ["a"], "sizes": ["M"], "colors": ["Red"]},
			{"id": 1, "name": "B", "category": "x", "gender": "men", "price": 1, "images": ["a"], "sizes": ["M"], "colors": ["Red"]}]}`},
		{"duplicate slug", `{"categories": [{"id": 1, "name": "A", "slug": "a"}, {"id": 2, "name": "B", "slug": "a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestCatalog_FetchByID(t *testing.T) {
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	p, err := c.FetchByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Tee", p.Name)

	_, err = c.FetchByID(context.Background(), 2)
	assert.ErrorIs(t, err, product.ErrProductNotFound)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestCatalog_FetchAllReturnsCopy(t *testing.T) {
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	first, _ := c.FetchAll(context.Background())
	first[0].Name = "mutated"
	second, _ := c.FetchAll(context.Background())

	assert.Equal(t, "Blazer", second[0].Name)
}

func TestCatalog_CancelledContext(t *testing.T) {
	c, err := New(nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.FetchAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_ShippedFixture(t *testing.T) {
	c, err := Load("../../../data/catalog.json")
	require.NoError(t, err)

	assert.Equal(t, 12, c.Len())
	cats, err := c.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 6)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist.json")
	assert.Error(t, err)
}
