package catalog

import "github.com/shopspring/decimal"

// Product is a cart-addressable art-shop item.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	Category      string
	ImageURL      string
	InStock       bool
	StockQuantity int
}

// Available reports whether the product can be added to a cart.
func (p Product) Available() bool {
	return p.InStock
}

// Service is a display-only offering (assignment writing, creative production).
// Price is optional: some services are quoted on request.
type Service struct {
	ID          int64
	Title       string
	Description string
	Category    string
	Price       decimal.NullDecimal
	Features    []string
	ImageURL    string
	IsActive    bool
}

type PortfolioItem struct {
	ID          int64
	Title       string
	Description string
	Category    string
	ImageURL    string
	ProjectURL  string
	Tags        []string
	IsFeatured  bool
}
