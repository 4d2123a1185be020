package orders

import (
	"context"

	"github.com/nexssio/storefront/internal/cart"
)

// Repository persists orders.
type Repository interface {
	// PlaceOrder assigns the order an id, persists it and deletes exactly the
	// given line items as one atomic step. If any of those items was changed or
	// removed since it was read, nothing is written and ErrCartChanged is returned.
	PlaceOrder(ctx context.Context, order Order, items []cart.LineItem) (Order, error)
	// GetOrder returns ErrOrderNotFound for unknown ids.
	GetOrder(ctx context.Context, id int64) (Order, error)
}

// CartReader reads the authoritative (uncached) contents of a cart.
type CartReader interface {
	ListLineItems(ctx context.Context, session cart.Session) ([]cart.LineItem, error)
}

// CacheInvalidator drops any cached view of a session's cart.
type CacheInvalidator interface {
	Invalidate(session cart.Session)
}

// EventPublisher announces placed orders to downstream consumers.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
}
