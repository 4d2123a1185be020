package catalog

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedDocument struct {
	Services  []seedService   `yaml:"services"`
	Products  []seedProduct   `yaml:"products"`
	Portfolio []seedPortfolio `yaml:"portfolio"`
}

type seedService struct {
	ID          int64    `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Price       string   `yaml:"price"`
	Features    []string `yaml:"features"`
	ImageURL    string   `yaml:"image_url"`
	IsActive    bool     `yaml:"is_active"`
}

type seedProduct struct {
	ID            int64  `yaml:"id"`
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	Price         string `yaml:"price"`
	Category      string `yaml:"category"`
	ImageURL      string `yaml:"image_url"`
	InStock       bool   `yaml:"in_stock"`
	StockQuantity int    `yaml:"stock_quantity"`
}

type seedPortfolio struct {
	ID          int64    `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	ImageURL    string   `yaml:"image_url"`
	ProjectURL  string   `yaml:"project_url"`
	Tags        []string `yaml:"tags"`
	IsFeatured  bool     `yaml:"is_featured"`
}

// ParseSeed decodes a YAML catalog document. Prices must be exact decimal
// strings and every category must be a known value for its collection.
func ParseSeed(data []byte) (*Memory, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	m := &Memory{
		services:  make(map[int64]Service, len(doc.Services)),
		products:  make(map[int64]Product, len(doc.Products)),
		portfolio: make(map[int64]PortfolioItem, len(doc.Portfolio)),
	}

	for _, s := range doc.Services {
		if !ValidCategory(KindService, s.Category) {
			return nil, fmt.Errorf("service %d: unknown category %q", s.ID, s.Category)
		}
		svc := Service{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Category:    s.Category,
			Features:    s.Features,
			ImageURL:    s.ImageURL,
			IsActive:    s.IsActive,
		}
		if s.Price != "" {
			price, err := decimal.NewFromString(s.Price)
			if err != nil {
				return nil, fmt.Errorf("service %d: invalid price %q: %w", s.ID, s.Price, err)
			}
			svc.Price = decimal.NewNullDecimal(price)
		}
		if err := m.putService(svc); err != nil {
			return nil, err
		}
	}

	for _, p := range doc.Products {
		if !ValidCategory(KindProduct, p.Category) {
			return nil, fmt.Errorf("product %d: unknown category %q", p.ID, p.Category)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d: invalid price %q: %w", p.ID, p.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %d: negative price %s", p.ID, p.Price)
		}
		err = m.putProduct(Product{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Price:         price,
			Category:      p.Category,
			ImageURL:      p.ImageURL,
			InStock:       p.InStock,
			StockQuantity: p.StockQuantity,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, it := range doc.Portfolio {
		if !ValidCategory(KindPortfolio, it.Category) {
			return nil, fmt.Errorf("portfolio item %d: unknown category %q", it.ID, it.Category)
		}
		err := m.putPortfolio(PortfolioItem{
			ID:          it.ID,
			Title:       it.Title,
			Description: it.Description,
			Category:    it.Category,
			ImageURL:    it.ImageURL,
			ProjectURL:  it.ProjectURL,
			Tags:        it.Tags,
			IsFeatured:  it.IsFeatured,
		})
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Default returns the catalog seeded with the storefront's built-in data.
func Default() (*Memory, error) {
	return ParseSeed(defaultSeed)
}
