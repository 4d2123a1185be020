package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
)

var ErrNotFound = errors.New("catalog item not found")

// Store is the read side of the catalog consumed by the cart and checkout.
type Store interface {
	Product(ctx context.Context, id int64) (Product, error)
	Products(ctx context.Context) ([]Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]Product, error)
	Services(ctx context.Context) ([]Service, error)
	ServicesByCategory(ctx context.Context, category string) ([]Service, error)
	Portfolio(ctx context.Context) ([]PortfolioItem, error)
	FeaturedPortfolio(ctx context.Context) ([]PortfolioItem, error)
	PortfolioByCategory(ctx context.Context, category string) ([]PortfolioItem, error)
}

// Memory is an immutable, in-process catalog. It is populated once by
// ParseSeed and safe for concurrent reads afterwards.
type Memory struct {
	services  map[int64]Service
	products  map[int64]Product
	portfolio map[int64]PortfolioItem
}

var _ Store = (*Memory)(nil)

func (m *Memory) putService(s Service) error {
	if _, dup := m.services[s.ID]; dup {
		return fmt.Errorf("duplicate service id %d", s.ID)
	}
	m.services[s.ID] = s
	return nil
}

func (m *Memory) putProduct(p Product) error {
	if _, dup := m.products[p.ID]; dup {
		return fmt.Errorf("duplicate product id %d", p.ID)
	}
	m.products[p.ID] = p
	return nil
}

func (m *Memory) putPortfolio(it PortfolioItem) error {
	if _, dup := m.portfolio[it.ID]; dup {
		return fmt.Errorf("duplicate portfolio id %d", it.ID)
	}
	m.portfolio[it.ID] = it
	return nil
}

func (m *Memory) Product(ctx context.Context, id int64) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *Memory) Products(ctx context.Context) ([]Product, error) {
	return sortedByID(m.products, func(Product) bool { return true }, func(p Product) int64 { return p.ID }), nil
}

func (m *Memory) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	return sortedByID(m.products, func(p Product) bool { return p.Category == category }, func(p Product) int64 { return p.ID }), nil
}

func (m *Memory) Services(ctx context.Context) ([]Service, error) {
	return sortedByID(m.services, func(Service) bool { return true }, func(s Service) int64 { return s.ID }), nil
}

func (m *Memory) ServicesByCategory(ctx context.Context, category string) ([]Service, error) {
	return sortedByID(m.services, func(s Service) bool { return s.Category == category }, func(s Service) int64 { return s.ID }), nil
}

func (m *Memory) Portfolio(ctx context.Context) ([]PortfolioItem, error) {
	return sortedByID(m.portfolio, func(PortfolioItem) bool { return true }, func(it PortfolioItem) int64 { return it.ID }), nil
}

func (m *Memory) FeaturedPortfolio(ctx context.Context) ([]PortfolioItem, error) {
	return sortedByID(m.portfolio, func(it PortfolioItem) bool { return it.IsFeatured }, func(it PortfolioItem) int64 { return it.ID }), nil
}

func (m *Memory) PortfolioByCategory(ctx context.Context, category string) ([]PortfolioItem, error) {
	return sortedByID(m.portfolio, func(it PortfolioItem) bool { return it.Category == category }, func(it PortfolioItem) int64 { return it.ID }), nil
}

// Index maps products by id for pricing lookups.
func Index(products []Product) map[int64]Product {
	idx := make(map[int64]Product, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

func sortedByID[T any](src map[int64]T, keep func(T) bool, id func(T) int64) []T {
	out := make([]T, 0, len(src))
	for _, v := range src {
		if keep(v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}
