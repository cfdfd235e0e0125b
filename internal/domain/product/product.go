package product

import (
	"slices"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/validation"
	"github.com/shopspring/decimal"
)

type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

var (
	ErrProductNotFound  = apperr.New(apperr.CodeNotFound, "product not found")
	ErrCategoryNotFound = apperr.New(apperr.CodeNotFound, "category not found")
)

var hundred = decimal.NewFromInt(100)

// Product is an immutable catalog record.
type Product struct {
	ID              int64           `json:"id" validate:"gt=0"`
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	Category        string          `json:"category" validate:"required"`
	Subcategory     string          `json:"subcategory"`
	Gender          Gender          `json:"gender" validate:"oneof=men women unisex"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discountPercent" validate:"min=0,max=100"`
	Images          []string        `json:"images" validate:"min=1,dive,required"`
	Sizes           []string        `json:"sizes" validate:"min=1,dive,required"`
	Colors          []string        `json:"colors" validate:"min=1,dive,required"`
	InStock         bool            `json:"inStock"`
	Featured        bool            `json:"featured"`
	NewArrival      bool            `json:"newArrival"`
	Tags            []string        `json:"tags"`
}

// PriceScale is the number of decimal places a price may carry. Relational
// storage keeps prices at this scale.
const PriceScale = 2

// Validate checks the record invariants. Price sign and scale are checked by
// hand since decimal.Decimal is opaque to the validator.
func (p Product) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	switch {
	case p.Price.IsNegative():
		return priceInvalid("must not be negative")
	case !p.Price.Equal(p.Price.Round(PriceScale)):
		return priceInvalid("must not have more than two decimal places")
	}
	return nil
}

func priceInvalid(msg string) error {
	return apperr.New(apperr.CodeInvalidArgument, "validation failed").
		WithDetails(map[string]string{"price": msg})
}

// DiscountedPrice is price * (1 - discountPercent/100). It never exceeds Price.
func (p Product) DiscountedPrice() decimal.Decimal {
	pct := min(max(p.DiscountPercent, 0), 100)
	if pct == 0 {
		return p.Price
	}
	return p.Price.Mul(decimal.NewFromInt(int64(100 - pct))).Div(hundred)
}

func (p Product) OnSale() bool {
	return p.DiscountPercent > 0
}

// ServesGender reports whether the product is offered to g; unisex products serve everyone.
func (p Product) ServesGender(g Gender) bool {
	return p.Gender == g || p.Gender == GenderUnisex
}

func (p Product) HasSize(size string) bool {
	return slices.Contains(p.Sizes, size)
}

func (p Product) HasColor(color string) bool {
	return slices.Contains(p.Colors, color)
}

// DefaultSize is the first offered size, used when a shopper does not pick one.
func (p Product) DefaultSize() string {
	if len(p.Sizes) == 0 {
		return ""
	}
	return p.Sizes[0]
}

func (p Product) DefaultColor() string {
	if len(p.Colors) == 0 {
		return ""
	}
	return p.Colors[0]
}
