package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/nexssio/storefront/internal/catalog"
)

// Service is the cart ledger: it validates requests against the catalog and
// applies them to the repository, keeping the read cache coherent.
type Service struct {
	repo     Repository
	products catalog.Store
	cache    Cache
	sfg      singleflight.Group // collapses concurrent cache misses per session
	log      zerolog.Logger
}

// NewService wires a ledger. cache may be nil to disable caching.
func NewService(repo Repository, products catalog.Store, cache Cache, log zerolog.Logger) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{
		repo:     repo,
		products: products,
		cache:    cache,
		log:      log.With().Str("component", "cart").Logger(),
	}
}

// ListItems returns every line item of the session. An unknown session yields an empty slice.
func (s *Service) ListItems(ctx context.Context, session Session) ([]LineItem, error) {
	if !session.Valid() {
		return nil, ErrInvalidSession
	}

	v, err, _ := s.sfg.Do(string(session), func() (interface{}, error) {
		// joined callers must not fail because the first caller went away
		ctx := context.WithoutCancel(ctx)

		items, generation, err := s.cache.Get(ctx, session)
		if err == nil {
			return items, nil
		}
		fill := errors.Is(err, ErrCacheMiss)
		if !fill {
			s.log.Warn().Err(err).Str("session", string(session)).Msg("cache get failed")
		}

		items, err = s.repo.ListLineItems(ctx, session)
		if err != nil {
			return nil, fmt.Errorf("list line items: %w", err)
		}
		if items == nil {
			items = []LineItem{}
		}

		if fill {
			err := s.cache.Set(ctx, session, items, generation)
			switch {
			case errors.Is(err, ErrStaleFill):
				s.log.Debug().Str("session", string(session)).Msg("cache fill skipped after concurrent write")
			case err != nil:
				s.log.Warn().Err(err).Str("session", string(session)).Msg("cache set failed")
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a singleflight result must not alias the same backing array
	return slices.Clone(v.([]LineItem)), nil
}

// AddItem adds quantity units of productID to the session's cart, merging into
// an existing line item for the same product.
func (s *Service) AddItem(ctx context.Context, session Session, productID int64, quantity int) (LineItem, error) {
	if !session.Valid() {
		return LineItem{}, ErrInvalidSession
	}
	if quantity < 1 || quantity > MaxQuantity {
		return LineItem{}, ErrInvalidQuantity
	}

	product, err := s.products.Product(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return LineItem{}, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	}
	if err != nil {
		return LineItem{}, fmt.Errorf("lookup product: %w", err)
	}
	if !product.Available() {
		return LineItem{}, fmt.Errorf("product %d: %w", productID, ErrProductUnavailable)
	}

	item, err := s.repo.AddQuantity(ctx, session, productID, quantity)
	if err != nil {
		return LineItem{}, fmt.Errorf("add quantity: %w", err)
	}
	s.invalidate(session)

	s.log.Debug().
		Str("session", string(session)).
		Int64("product_id", productID).
		Int("added", quantity).
		Int("quantity", item.Quantity).
		Msg("cart item added")
	return item, nil
}

// SetQuantity overwrites the quantity of an existing line item.
func (s *Service) SetQuantity(ctx context.Context, id int64, quantity int) (LineItem, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return LineItem{}, ErrInvalidQuantity
	}

	item, err := s.repo.SetQuantity(ctx, id, quantity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return LineItem{}, err
		}
		return LineItem{}, fmt.Errorf("set quantity: %w", err)
	}
	s.invalidate(item.SessionID)
	return item, nil
}

// RemoveItem deletes a line item. Removing an unknown id is not an error.
func (s *Service) RemoveItem(ctx context.Context, id int64) error {
	item, err := s.repo.DeleteLineItem(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	s.invalidate(item.SessionID)
	return nil
}

// Clear empties the session's cart.
func (s *Service) Clear(ctx context.Context, session Session) error {
	if !session.Valid() {
		return ErrInvalidSession
	}
	if err := s.repo.DeleteSession(ctx, session); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.invalidate(session)
	return nil
}

// Invalidate drops the cached view of a session after an out-of-band change
// such as checkout.
func (s *Service) Invalidate(session Session) {
	s.invalidate(session)
}

func (s *Service) invalidate(session Session) {
	// later reads must not join a load that started before this write
	s.sfg.Forget(string(session))

	// detached from the request so a cancelled client still invalidates
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, session); err != nil {
		s.log.Warn().Err(err).Str("session", string(session)).Msg("cache invalidate failed")
	}
}
