package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexssio/storefront/internal/cart"
)

// Order statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Customer is the contact data captured at checkout. It is not tied to any account.
type Customer struct {
	Name  string `json:"customerName" validate:"nonblank,max=200"`
	Email string `json:"customerEmail" validate:"required,email,max=254"`
	Phone string `json:"customerPhone" validate:"omitempty,max=32"`
}

func (c Customer) normalized() Customer {
	return Customer{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// Line is the priced snapshot of one cart line at checkout time.
type Line struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// Order is the immutable record of a completed checkout.
type Order struct {
	ID            int64
	SessionID     cart.Session
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Items         []Line
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Status        string // pending | completed | cancelled
	CreatedAt     time.Time
}

// ItemCount is the number of units in the order.
func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}

const EventOrderPlaced = "order.placed"

// OrderPlaced is the event published after an order is persisted.
type OrderPlaced struct {
	OrderID       int64     `json:"order_id"`
	SessionID     string    `json:"session_id"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Total         string    `json:"total"`
	ItemCount     int       `json:"item_count"`
	PlacedAt      time.Time `json:"placed_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}
