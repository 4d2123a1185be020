package handlers

import (
	"time"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/catalog"
	"github.com/nexssio/storefront/internal/orders"
	"github.com/nexssio/storefront/internal/pricing"
)

// productDTO is the wire form of a product. Money fields in every DTO are
// strings with exactly two fraction digits.
type productDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         string `json:"price"`
	Category      string `json:"category"`
	ImageURL      string `json:"imageUrl,omitempty"`
	InStock       bool   `json:"inStock"`
	StockQuantity int    `json:"stockQuantity"`
}

func newProductDTO(p catalog.Product) productDTO {
	return productDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         pricing.Format(p.Price),
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		InStock:       p.InStock,
		StockQuantity: p.StockQuantity,
	}
}

type serviceDTO struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       *string  `json:"price"`
	Features    []string `json:"features"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	IsActive    bool     `json:"isActive"`
}

func newServiceDTO(s catalog.Service) serviceDTO {
	out := serviceDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Category:    s.Category,
		Features:    s.Features,
		ImageURL:    s.ImageURL,
		IsActive:    s.IsActive,
	}
	if out.Features == nil {
		out.Features = []string{}
	}
	if s.Price.Valid {
		p := pricing.Format(s.Price.Decimal)
		out.Price = &p
	}
	return out
}

type portfolioDTO struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	ProjectURL  string   `json:"projectUrl,omitempty"`
	Tags        []string `json:"tags"`
	IsFeatured  bool     `json:"isFeatured"`
}

func newPortfolioDTO(it catalog.PortfolioItem) portfolioDTO {
	out := portfolioDTO{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Category:    it.Category,
		ImageURL:    it.ImageURL,
		ProjectURL:  it.ProjectURL,
		Tags:        it.Tags,
		IsFeatured:  it.IsFeatured,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

type pricedLineDTO struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type summaryDTO struct {
	SessionID  string          `json:"sessionId"`
	Items      []pricedLineDTO `json:"items"`
	Unresolved []int64         `json:"unresolved"`
	Subtotal   string          `json:"subtotal"`
	Tax        string          `json:"tax"`
	Total      string          `json:"total"`
	ItemCount  int             `json:"itemCount"`
}

func newSummaryDTO(session cart.Session, s pricing.Summary) summaryDTO {
	out := summaryDTO{
		SessionID:  string(session),
		Items:      make([]pricedLineDTO, 0, len(s.Lines)),
		Unresolved: s.Unresolved,
		Subtotal:   pricing.Format(s.Subtotal),
		Tax:        pricing.Format(s.Tax),
		Total:      pricing.Format(s.Total),
		ItemCount:  s.ItemCount,
	}
	if out.Unresolved == nil {
		out.Unresolved = []int64{}
	}
	for _, l := range s.Lines {
		out.Items = append(out.Items, pricedLineDTO{
			ID:        l.LineItemID,
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: pricing.Format(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: pricing.Format(l.LineTotal),
		})
	}
	return out
}

type orderDTO struct {
	ID            int64           `json:"id"`
	SessionID     string          `json:"sessionId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	Items         []pricedLineDTO `json:"items"`
	Subtotal      string          `json:"subtotal"`
	Tax           string          `json:"tax"`
	Total         string          `json:"total"`
	ItemCount     int             `json:"itemCount"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func newOrderDTO(o orders.Order) orderDTO {
	out := orderDTO{
		ID:            o.ID,
		SessionID:     string(o.SessionID),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		Items:         make([]pricedLineDTO, 0, len(o.Items)),
		Subtotal:      pricing.Format(o.Subtotal),
		Tax:           pricing.Format(o.Tax),
		Total:         pricing.Format(o.Total),
		ItemCount:     o.ItemCount(),
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
	for _, l := range o.Items {
		out.Items = append(out.Items, pricedLineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: pricing.Format(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: pricing.Format(l.LineTotal),
		})
	}
	return out
}
