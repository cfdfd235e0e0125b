package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/product"
)

// MockCatalogSource is an in-memory catalog.Source and catalog.CategorySource.
type MockCatalogSource struct {
	mu         sync.Mutex
	products   []product.Product
	categories []product.Category

	// For tracking calls in tests
	FetchAllCalls        int
	FetchByIDCalls       []int64
	FetchCategoriesCalls int

	FetchErr      error
	CategoriesErr error
}

func NewMockCatalogSource(products []product.Product, categories []product.Category) *MockCatalogSource {
	return &MockCatalogSource{
		products:   slices.Clone(products),
		categories: slices.Clone(categories),
	}
}

func (m *MockCatalogSource) FetchAll(ctx context.Context) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchAllCalls++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return slices.Clone(m.products), nil
}

func (m *MockCatalogSource) FetchByID(ctx context.Context, id int64) (product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchByIDCalls = append(m.FetchByIDCalls, id)
	if m.FetchErr != nil {
		return product.Product{}, m.FetchErr
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, product.ErrProductNotFound
}

func (m *MockCatalogSource) FetchCategories(ctx context.Context) ([]product.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchCategoriesCalls++
	if m.CategoriesErr != nil {
		return nil, m.CategoriesErr
	}
	return slices.Clone(m.categories), nil
}

// MockNarrowingSource adds catalog.Narrower. Narrow decides which products
// the "server" returns; when nil the whole catalog is returned.
type MockNarrowingSource struct {
	*MockCatalogSource

	Narrow             func(product.Product, catalog.FilterSpec) bool
	FetchMatchingCalls []catalog.FilterSpec
}

func NewMockNarrowingSource(products []product.Product, narrow func(product.Product, catalog.FilterSpec) bool) *MockNarrowingSource {
	return &MockNarrowingSource{
		MockCatalogSource: NewMockCatalogSource(products, nil),
		Narrow:            narrow,
	}
}

func (m *MockNarrowingSource) FetchMatching(ctx context.Context, spec catalog.FilterSpec) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FetchMatchingCalls = append(m.FetchMatchingCalls, spec)
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	result := make([]product.Product, 0, len(m.products))
	for _, p := range m.products {
		if m.Narrow == nil || m.Narrow(p, spec) {
			result = append(result, p)
		}
	}
	return result, nil
}
