package product

import "github.com/example/ec-storefront/internal/validation"

// MainCategorySlugs are the top-level navigation entries, in listing order.
var MainCategorySlugs = []string{"men", "women", "accessories"}

type Category struct {
	ID            int64    `json:"id" validate:"gt=0"`
	Name          string   `json:"name" validate:"required"`
	Slug          string   `json:"slug" validate:"required"`
	Image         string   `json:"image"`
	ProductCount  int      `json:"productCount" validate:"min=0"`
	Description   string   `json:"description"`
	Subcategories []string `json:"subcategories"`
	Tags          []string `json:"tags"`
}

func (c Category) Validate() error {
	return validation.Struct(c)
}
