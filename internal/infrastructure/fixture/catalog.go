// Package fixture serves the catalog from a static JSON document, the
// in-memory counterpart of the database-backed sources.
package fixture

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/example/ec-storefront/internal/domain/product"
)

// Document is the on-disk fixture layout.
type Document struct {
	Categories []product.Category `json:"categories"`
	Products   []product.Product  `json:"products"`
}

// Catalog is an immutable in-memory catalog. It implements catalog.Source
// and catalog.CategorySource.
type Catalog struct {
	products   []product.Product
	byID       map[int64]int
	categories []product.Category
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}
	return New(doc.Products, doc.Categories)
}

// New validates the records and orders products by ascending id.
func New(products []product.Product, categories []product.Category) (*Catalog, error) {
	c := &Catalog{
		products:   slices.Clone(products),
		byID:       make(map[int64]int, len(products)),
		categories: slices.Clone(categories),
	}
	if c.products == nil {
		c.products = []product.Product{}
	}
	if c.categories == nil {
		c.categories = []product.Category{}
	}

	for _, p := range c.products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
	}
	slices.SortStableFunc(c.products, func(a, b product.Product) int { return cmp.Compare(a.ID, b.ID) })
	for i, p := range c.products {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		c.byID[p.ID] = i
	}

	slugs := make(map[string]bool, len(c.categories))
	for _, cat := range c.categories {
		if err := cat.Validate(); err != nil {
			return nil, fmt.Errorf("category %q: %w", cat.Slug, err)
		}
		if slugs[cat.Slug] {
			return nil, fmt.Errorf("duplicate category slug %q", cat.Slug)
		}
		slugs[cat.Slug] = true
	}
	return c, nil
}

func (c *Catalog) FetchAll(ctx context.Context) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(c.products), nil
}

func (c *Catalog) FetchByID(ctx context.Context, id int64) (product.Product, error) {
	if err := ctx.Err(); err != nil {
		return product.Product{}, err
	}
	i, ok := c.byID[id]
	if !ok {
		return product.Product{}, product.ErrProductNotFound
	}
	return c.products[i], nil
}

func (c *Catalog) FetchCategories(ctx context.Context) ([]product.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(c.categories), nil
}

func (c *Catalog) Len() int {
	return len(c.products)
}
