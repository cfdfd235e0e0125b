// Package checkout derives order totals from a cart subtotal.
package checkout

import (
	"github.com/example/ec-storefront/internal/apperr"
	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
)

var (
	TaxRate               = decimal.RequireFromString("0.08")
	FreeShippingThreshold = decimal.NewFromInt(50)

	rates = map[ShippingMethod]decimal.Decimal{
		ShippingStandard:  decimal.RequireFromString("9.99"),
		ShippingExpress:   decimal.RequireFromString("19.99"),
		ShippingOvernight: decimal.RequireFromString("39.99"),
	}
)

var ErrUnknownShippingMethod = apperr.New(apperr.CodeInvalidArgument, "unknown shipping method")

// Summary is the derived price breakdown shown at checkout. All amounts are
// rounded to cents.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Method   ShippingMethod  `json:"shippingMethod"`
}

// Totals prices standard shipping: free above FreeShippingThreshold.
func Totals(subtotal decimal.Decimal) Summary {
	s, _ := Quote(subtotal, ShippingStandard)
	return s
}

// Quote prices subtotal with the given shipping method. Only standard
// shipping becomes free above the threshold. An empty method means standard.
func Quote(subtotal decimal.Decimal, method ShippingMethod) (Summary, error) {
	if method == "" {
		method = ShippingStandard
	}
	rate, ok := rates[method]
	if !ok {
		return Summary{}, ErrUnknownShippingMethod.WithDetails(map[string]string{"shipping": string(method)})
	}

	shipping := rate
	if method == ShippingStandard && subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(2)

	return Summary{
		Subtotal: subtotal.Round(2),
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax).Round(2),
		Method:   method,
	}, nil
}

// Methods lists the shipping methods with their base rate, cheapest first.
func Methods() []MethodRate {
	return []MethodRate{
		{Method: ShippingStandard, Rate: rates[ShippingStandard]},
		{Method: ShippingExpress, Rate: rates[ShippingExpress]},
		{Method: ShippingOvernight, Rate: rates[ShippingOvernight]},
	}
}

type MethodRate struct {
	Method ShippingMethod  `json:"method"`
	Rate   decimal.Decimal `json:"rate"`
}
