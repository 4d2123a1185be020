// Package memory is an in-process persistence backend. Each entity type has
// its own auto-incrementing id space; a single mutex makes every operation,
// including checkout, one atomic step.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/contact"
	"github.com/nexssio/storefront/internal/orders"
)

type lineKey struct {
	session   cart.Session
	productID int64
}

type Store struct {
	mu sync.Mutex

	lineItems map[int64]cart.LineItem
	byProduct map[lineKey]int64
	orders    map[int64]orders.Order
	contacts  map[int64]contact.Submission
	feedback  map[int64]contact.Feedback

	nextLineItemID int64
	nextOrderID    int64
	nextContactID  int64
	nextFeedbackID int64

	nowFunc func() time.Time
}

var (
	_ cart.Repository    = (*Store)(nil)
	_ orders.Repository  = (*Store)(nil)
	_ contact.Repository = (*Store)(nil)
)

func New() *Store {
	return &Store{
		lineItems: map[int64]cart.LineItem{},
		byProduct: map[lineKey]int64{},
		orders:    map[int64]orders.Order{},
		contacts:  map[int64]contact.Submission{},
		feedback:  map[int64]contact.Feedback{},
		nowFunc:   time.Now,
	}
}

func (s *Store) ListLineItems(ctx context.Context, session cart.Session) ([]cart.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []cart.LineItem{}
	for _, it := range s.lineItems {
		if it.SessionID == session {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b cart.LineItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) AddQuantity(ctx context.Context, session cart.Session, productID int64, quantity int) (cart.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lineKey{session: session, productID: productID}
	if id, ok := s.byProduct[key]; ok {
		it := s.lineItems[id]
		if it.Quantity+quantity > cart.MaxQuantity {
			return cart.LineItem{}, fmt.Errorf("line item %d holds %d: %w", id, it.Quantity, cart.ErrInvalidQuantity)
		}
		it.Quantity += quantity
		s.lineItems[id] = it
		return it, nil
	}

	s.nextLineItemID++
	it := cart.LineItem{
		ID:        s.nextLineItemID,
		SessionID: session,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: s.nowFunc().UTC(),
	}
	s.lineItems[it.ID] = it
	s.byProduct[key] = it.ID
	return it, nil
}

func (s *Store) SetQuantity(ctx context.Context, id int64, quantity int) (cart.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.lineItems[id]
	if !ok {
		return cart.LineItem{}, fmt.Errorf("line item %d: %w", id, cart.ErrNotFound)
	}
	it.Quantity = quantity
	s.lineItems[id] = it
	return it, nil
}

func (s *Store) DeleteLineItem(ctx context.Context, id int64) (cart.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.lineItems[id]
	if !ok {
		return cart.LineItem{}, fmt.Errorf("line item %d: %w", id, cart.ErrNotFound)
	}
	s.deleteLocked(it)
	return it, nil
}

func (s *Store) DeleteSession(ctx context.Context, session cart.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.lineItems {
		if it.SessionID == session {
			s.deleteLocked(it)
		}
	}
	return nil
}

func (s *Store) deleteLocked(it cart.LineItem) {
	delete(s.lineItems, it.ID)
	delete(s.byProduct, lineKey{session: it.SessionID, productID: it.ProductID})
}

func (s *Store) PlaceOrder(ctx context.Context, order orders.Order, items []cart.LineItem) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, want := range items {
		got, ok := s.lineItems[want.ID]
		if !ok || got.SessionID != want.SessionID || got.Quantity != want.Quantity {
			return orders.Order{}, fmt.Errorf("line item %d: %w", want.ID, orders.ErrCartChanged)
		}
	}

	s.nextOrderID++
	order.ID = s.nextOrderID
	order.Items = slices.Clone(order.Items)
	s.orders[order.ID] = order

	for _, it := range items {
		s.deleteLocked(it)
	}
	return order, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return orders.Order{}, fmt.Errorf("order %d: %w", id, orders.ErrOrderNotFound)
	}
	o.Items = slices.Clone(o.Items)
	return o, nil
}

// OrderCount reports how many orders have been placed.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Store) CreateSubmission(ctx context.Context, sub contact.Submission) (contact.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextContactID++
	sub.ID = s.nextContactID
	s.contacts[sub.ID] = sub
	return sub, nil
}

func (s *Store) CreateFeedback(ctx context.Context, fb contact.Feedback) (contact.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextFeedbackID++
	fb.ID = s.nextFeedbackID
	s.feedback[fb.ID] = fb
	return fb, nil
}
