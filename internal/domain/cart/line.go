package cart

import (
	"github.com/shopspring/decimal"
)

// Variant is the (size, color) pair that, together with the product id,
// identifies a cart line.
type Variant struct {
	Size  string `json:"size" validate:"required"`
	Color string `json:"color" validate:"required"`
}

// Line is one entry of the ledger. UnitPrice is captured when the line is
// created and does not follow later catalog price changes.
type Line struct {
	LineID    string          `json:"lineId"`
	ProductID int64           `json:"productId"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Variant() Variant {
	return Variant{Size: l.Size, Color: l.Color}
}

// Total is UnitPrice * Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) matches(productID int64, v Variant) bool {
	return l.ProductID == productID && l.Size == v.Size && l.Color == v.Color
}

// Snapshot is a point-in-time view of a cart with its derived aggregates.
type Snapshot struct {
	SessionID string          `json:"sessionId"`
	Lines     []Line          `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func itemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}
