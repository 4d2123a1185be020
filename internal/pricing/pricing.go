// Package pricing derives cart figures from line items joined against the
// product catalog. It holds no state and performs no I/O.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/catalog"
)

// Cents is the number of fraction digits money is rounded and rendered with.
const Cents = 2

// DefaultTaxRate is applied when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Line is a line item resolved against the catalog.
type Line struct {
	LineItemID int64
	ProductID  int64
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
	LineTotal  decimal.Decimal
}

// Summary is the priced view of a cart.
type Summary struct {
	Lines []Line
	// Unresolved holds ids of line items whose product no longer exists;
	// they contribute nothing to the figures.
	Unresolved []int64
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	ItemCount  int
}

type Calculator struct {
	TaxRate decimal.Decimal
}

func NewCalculator(taxRate decimal.Decimal) Calculator {
	return Calculator{TaxRate: taxRate}
}

// Subtotal is the sum of price x quantity over the items whose product resolves.
func (c Calculator) Subtotal(items []cart.LineItem, products map[int64]catalog.Product) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		sum = sum.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Tax is subtotal x rate, rounded half away from zero to cents.
func (c Calculator) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.TaxRate).Round(Cents)
}

func (c Calculator) Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(c.Tax(subtotal))
}

// ItemCount is the total number of units across all line items.
func ItemCount(items []cart.LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Price resolves every line item and computes the cart figures.
func (c Calculator) Price(items []cart.LineItem, products map[int64]catalog.Product) Summary {
	s := Summary{
		Lines:    make([]Line, 0, len(items)),
		Subtotal: decimal.Zero,
	}
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			s.Unresolved = append(s.Unresolved, it.ID)
			continue
		}
		s.Lines = append(s.Lines, Line{
			LineItemID: it.ID,
			ProductID:  it.ProductID,
			Name:       p.Name,
			UnitPrice:  p.Price,
			Quantity:   it.Quantity,
			LineTotal:  p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}

	s.Subtotal = c.Subtotal(items, products)
	s.Tax = c.Tax(s.Subtotal)
	s.Total = s.Subtotal.Add(s.Tax)
	s.ItemCount = ItemCount(items)
	return s
}

// Format renders an amount with exactly two fraction digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Cents)
}
