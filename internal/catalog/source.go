package catalog

import (
	"context"

	"github.com/example/ec-storefront/internal/domain/product"
)

// Source materializes the catalog. Implementations return products in
// catalog order (ascending id) so every backend feeds the engine the same
// sequence. FetchByID returns product.ErrProductNotFound for unknown ids.
type Source interface {
	FetchAll(ctx context.Context) ([]product.Product, error)
	FetchByID(ctx context.Context, id int64) (product.Product, error)
}

// Narrower is implemented by sources that can pre-select candidates for a
// spec server-side. The result must be a superset of Query(FetchAll, spec)
// and keep catalog order; the engine still runs over it.
type Narrower interface {
	FetchMatching(ctx context.Context, spec FilterSpec) ([]product.Product, error)
}

// CategorySource lists catalog categories.
type CategorySource interface {
	FetchCategories(ctx context.Context) ([]product.Category, error)
}
