package cart

import "context"

// Repository is the durable session -> line item mapping.
// Implementations must make AddQuantity a single atomic upsert-with-increment
// so that concurrent adds of the same product never lose an update.
type Repository interface {
	ListLineItems(ctx context.Context, session Session) ([]LineItem, error)
	// AddQuantity creates the (session, productID) line item with quantity,
	// or increments the existing one by quantity.
	AddQuantity(ctx context.Context, session Session, productID int64, quantity int) (LineItem, error)
	// SetQuantity returns ErrNotFound when no line item has the id.
	SetQuantity(ctx context.Context, id int64, quantity int) (LineItem, error)
	// DeleteLineItem returns the removed item, or ErrNotFound for unknown ids.
	DeleteLineItem(ctx context.Context, id int64) (LineItem, error)
	DeleteSession(ctx context.Context, session Session) error
}

// Cache is a read-through cache of a session's line items. Delete advances
// the session's generation, and Set only writes when given the current one, so
// a fill that read the store before a write cannot overwrite the invalidation.
type Cache interface {
	// Get returns the cached items, or ErrCacheMiss together with the
	// generation a subsequent Set must present.
	Get(ctx context.Context, session Session) ([]LineItem, int64, error)
	// Set returns ErrStaleFill when the generation has moved on.
	Set(ctx context.Context, session Session, items []LineItem, generation int64) error
	Delete(ctx context.Context, session Session) error
}

type noCache struct{}

func (noCache) Get(context.Context, Session) ([]LineItem, int64, error) { return nil, 0, ErrCacheMiss }
func (noCache) Set(context.Context, Session, []LineItem, int64) error   { return nil }
func (noCache) Delete(context.Context, Session) error                   { return nil }
