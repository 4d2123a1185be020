package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/orders"
)

// orderRecord stores money as fixed two-decimal strings so amounts round-trip exactly.
type orderRecord struct {
	OrderID       int64             `dynamodbav:"order_id"`
	SessionID     string            `dynamodbav:"session_id"`
	CustomerName  string            `dynamodbav:"customer_name"`
	CustomerEmail string            `dynamodbav:"customer_email"`
	CustomerPhone string            `dynamodbav:"customer_phone,omitempty"`
	Items         []orderLineRecord `dynamodbav:"items"`
	Subtotal      string            `dynamodbav:"subtotal"`
	Tax           string            `dynamodbav:"tax"`
	Total         string            `dynamodbav:"total"`
	Status        string            `dynamodbav:"status"`
	CreatedAt     time.Time         `dynamodbav:"created_at"`
}

type orderLineRecord struct {
	ProductID int64  `dynamodbav:"product_id"`
	Name      string `dynamodbav:"name"`
	UnitPrice string `dynamodbav:"unit_price"`
	Quantity  int    `dynamodbav:"quantity"`
	LineTotal string `dynamodbav:"line_total"`
}

func toOrderRecord(o orders.Order) orderRecord {
	rec := orderRecord{
		OrderID:       o.ID,
		SessionID:     string(o.SessionID),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		Items:         make([]orderLineRecord, 0, len(o.Items)),
		Subtotal:      o.Subtotal.StringFixed(2),
		Tax:           o.Tax.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
	for _, l := range o.Items {
		rec.Items = append(rec.Items, orderLineRecord{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	return rec
}

func (r orderRecord) toOrder() (orders.Order, error) {
	o := orders.Order{
		ID:            r.OrderID,
		SessionID:     cart.Session(r.SessionID),
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		Items:         make([]orders.Line, 0, len(r.Items)),
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
	}
	var err error
	if o.Subtotal, err = decimal.NewFromString(r.Subtotal); err != nil {
		return orders.Order{}, fmt.Errorf("order %d subtotal: %w", r.OrderID, err)
	}
	if o.Tax, err = decimal.NewFromString(r.Tax); err != nil {
		return orders.Order{}, fmt.Errorf("order %d tax: %w", r.OrderID, err)
	}
	if o.Total, err = decimal.NewFromString(r.Total); err != nil {
		return orders.Order{}, fmt.Errorf("order %d total: %w", r.OrderID, err)
	}
	for _, l := range r.Items {
		unit, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return orders.Order{}, fmt.Errorf("order %d line %d unit price: %w", r.OrderID, l.ProductID, err)
		}
		total, err := decimal.NewFromString(l.LineTotal)
		if err != nil {
			return orders.Order{}, fmt.Errorf("order %d line %d total: %w", r.OrderID, l.ProductID, err)
		}
		o.Items = append(o.Items, orders.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: unit,
			Quantity:  l.Quantity,
			LineTotal: total,
		})
	}
	return o, nil
}

// PlaceOrder writes the order and deletes the consumed line items in a single
// transaction. Each delete is conditioned on the line's id and quantity being
// unchanged, so a concurrent cart edit cancels the whole checkout.
func (s *Store) PlaceOrder(ctx context.Context, order orders.Order, items []cart.LineItem) (orders.Order, error) {
	if 1+2*len(items) > maxTransactItems {
		return orders.Order{}, fmt.Errorf("place order: %d line items exceed the transaction limit", len(items))
	}

	id, err := s.nextID(ctx, counterOrder)
	if err != nil {
		return orders.Order{}, err
	}
	order.ID = id

	orderMap, err := attributevalue.MarshalMap(toOrderRecord(order))
	if err != nil {
		return orders.Order{}, fmt.Errorf("marshal order item: %w", err)
	}

	transactItems := make([]types.TransactWriteItem, 0, 1+2*len(items))
	transactItems = append(transactItems, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           &s.tables.Orders,
			Item:                orderMap,
			ConditionExpression: awsString("attribute_not_exists(order_id)"),
		},
	})
	for _, it := range items {
		transactItems = append(transactItems, deleteLineWrites(s.tables.Cart, it, true)...)
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		if conditionCancelled(err) {
			return orders.Order{}, fmt.Errorf("place order for session %s: %w", order.SessionID, orders.ErrCartChanged)
		}
		return orders.Order{}, fmt.Errorf("transact write: %w", err)
	}
	return order, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (orders.Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tables.Orders,
		Key: map[string]types.AttributeValue{
			"order_id": numberAttr(id),
		},
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return orders.Order{}, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return orders.Order{}, fmt.Errorf("order %d: %w", id, orders.ErrOrderNotFound)
	}
	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return orders.Order{}, fmt.Errorf("unmarshal order: %w", err)
	}
	return rec.toOrder()
}
