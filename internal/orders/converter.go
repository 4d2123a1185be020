package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/catalog"
	"github.com/nexssio/storefront/internal/pricing"
	"github.com/nexssio/storefront/internal/validation"
)

// Converter turns a session's cart into an Order.
type Converter struct {
	items     CartReader
	products  catalog.Store
	repo      Repository
	calc      pricing.Calculator
	validate  *validatorv10.Validate
	publisher EventPublisher
	cache     CacheInvalidator
	log       zerolog.Logger
	nowFunc   func() time.Time
}

// Config groups the converter's collaborators. Publisher and Cache are optional.
type Config struct {
	Items     CartReader
	Products  catalog.Store
	Repo      Repository
	Pricing   pricing.Calculator
	Publisher EventPublisher
	Cache     CacheInvalidator
	Logger    zerolog.Logger
}

func NewConverter(cfg Config) *Converter {
	return &Converter{
		items:     cfg.Items,
		products:  cfg.Products,
		repo:      cfg.Repo,
		calc:      cfg.Pricing,
		validate:  validation.New(),
		publisher: cfg.Publisher,
		cache:     cfg.Cache,
		log:       cfg.Logger.With().Str("component", "checkout").Logger(),
		nowFunc:   time.Now,
	}
}

// Quote prices the session's cart from current catalog prices.
func (c *Converter) Quote(ctx context.Context, session cart.Session) (pricing.Summary, error) {
	_, summary, err := c.quote(ctx, session)
	return summary, err
}

func (c *Converter) quote(ctx context.Context, session cart.Session) ([]cart.LineItem, pricing.Summary, error) {
	if !session.Valid() {
		return nil, pricing.Summary{}, cart.ErrInvalidSession
	}
	items, err := c.items.ListLineItems(ctx, session)
	if err != nil {
		return nil, pricing.Summary{}, fmt.Errorf("list line items: %w", err)
	}
	products, err := c.products.Products(ctx)
	if err != nil {
		return nil, pricing.Summary{}, fmt.Errorf("list products: %w", err)
	}
	return items, c.calc.Price(items, catalog.Index(products)), nil
}

// Checkout validates the customer, prices the cart server-side, persists a
// pending order and removes the priced items from the cart. On any error the
// cart is left untouched.
func (c *Converter) Checkout(ctx context.Context, session cart.Session, customer Customer) (Order, error) {
	items, summary, err := c.quote(ctx, session)
	if err != nil {
		return Order{}, err
	}
	if len(summary.Lines) == 0 {
		return Order{}, ErrEmptyCart
	}

	customer = customer.normalized()
	if err := c.validate.Struct(customer); err != nil {
		var ve validatorv10.ValidationErrors
		if errors.As(err, &ve) {
			return Order{}, &CustomerDataError{Fields: validation.FieldErrors(err)}
		}
		return Order{}, fmt.Errorf("validate customer: %w", err)
	}

	order := Order{
		SessionID:     session,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		Items:         make([]Line, 0, len(summary.Lines)),
		Subtotal:      summary.Subtotal,
		Tax:           summary.Tax,
		Total:         summary.Total,
		Status:        StatusPending,
		CreatedAt:     c.nowFunc().UTC(),
	}
	for _, l := range summary.Lines {
		order.Items = append(order.Items, Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}

	placed, err := c.repo.PlaceOrder(ctx, order, items)
	if err != nil {
		if errors.Is(err, ErrCartChanged) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("place order: %w", err)
	}
	if c.cache != nil {
		c.cache.Invalidate(session)
	}

	c.log.Info().
		Int64("order_id", placed.ID).
		Str("session", string(session)).
		Str("total", pricing.Format(placed.Total)).
		Int("items", placed.ItemCount()).
		Msg("order placed")

	c.publish(ctx, placed)
	return placed, nil
}

// Get returns a persisted order.
func (c *Converter) Get(ctx context.Context, id int64) (Order, error) {
	o, err := c.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (c *Converter) publish(ctx context.Context, o Order) {
	if c.publisher == nil {
		return
	}
	ev := OrderPlaced{
		OrderID:       o.ID,
		SessionID:     string(o.SessionID),
		CustomerEmail: o.CustomerEmail,
		Total:         pricing.Format(o.Total),
		ItemCount:     o.ItemCount(),
		PlacedAt:      o.CreatedAt,
		CorrelationID: CorrelationID(ctx),
	}
	// the order is already durable; a lost event only delays downstream metrics
	if err := c.publisher.PublishOrderPlaced(ctx, ev); err != nil {
		c.log.Error().Err(err).Int64("order_id", o.ID).Msg("publish order event failed")
	}
}

type correlationKey struct{}

// WithCorrelationID attaches a request id that is propagated into order events.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
