package dynamo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nexssio/storefront/internal/cart"
)

// maxTransactItems is DynamoDB's TransactWriteItems limit.
const maxTransactItems = 100

var (
	errLineMissing = errors.New("line item does not exist")
	errLineExists  = errors.New("line item already exists")
)

// lineRecord is a cart line item as stored in the cart table.
type lineRecord struct {
	SessionID string    `dynamodbav:"session_id"`
	ProductID int64     `dynamodbav:"product_id"`
	ID        int64     `dynamodbav:"id"`
	Quantity  int       `dynamodbav:"quantity"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

func (r lineRecord) toLineItem() cart.LineItem {
	return cart.LineItem{
		ID:        r.ID,
		SessionID: cart.Session(r.SessionID),
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
	}
}

// pointerRecord maps a line item id back to its (session, product) key.
type pointerRecord struct {
	SessionID   string `dynamodbav:"session_id"`
	ProductID   int64  `dynamodbav:"product_id"`
	LineSession string `dynamodbav:"line_session"`
	LineProduct int64  `dynamodbav:"line_product"`
}

func lineKey(session cart.Session, productID int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"session_id": &types.AttributeValueMemberS{Value: string(session)},
		"product_id": numberAttr(productID),
	}
}

// pointer partition keys start with '#', which valid session tokens never contain
func pointerKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"session_id": &types.AttributeValueMemberS{Value: fmt.Sprintf("#line#%d", id)},
		"product_id": numberAttr(0),
	}
}

func (s *Store) ListLineItems(ctx context.Context, session cart.Session) ([]cart.LineItem, error) {
	out := []cart.LineItem{}
	input := &dyn.QueryInput{
		TableName:              &s.tables.Cart,
		KeyConditionExpression: awsString("session_id = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(session)},
		},
		ConsistentRead: boolPtr(true),
	}
	for {
		page, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query cart: %w", err)
		}
		var recs []lineRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
		for _, r := range recs {
			out = append(out, r.toLineItem())
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
	slices.SortFunc(out, func(a, b cart.LineItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// AddQuantity increments an existing line with a conditional ADD, or creates
// it together with its pointer in one transaction. A lost creation race falls
// back to the increment, so concurrent adds never duplicate or drop units.
func (s *Store) AddQuantity(ctx context.Context, session cart.Session, productID int64, quantity int) (cart.LineItem, error) {
	for attempt := 0; attempt < 2; attempt++ {
		item, err := s.incrementLine(ctx, session, productID, quantity)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, errLineMissing) {
			return cart.LineItem{}, err
		}

		item, err = s.createLine(ctx, session, productID, quantity)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, errLineExists) {
			return cart.LineItem{}, err
		}
	}
	return cart.LineItem{}, fmt.Errorf("add quantity: contention on session %s product %d", session, productID)
}

func (s *Store) incrementLine(ctx context.Context, session cart.Session, productID int64, quantity int) (cart.LineItem, error) {
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:           &s.tables.Cart,
		Key:                 lineKey(session, productID),
		UpdateExpression:    awsString("ADD quantity :q"),
		ConditionExpression: awsString("attribute_exists(session_id) AND quantity <= :max"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":   numberAttr(int64(quantity)),
			":max": numberAttr(int64(cart.MaxQuantity - quantity)),
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return cart.LineItem{}, fmt.Errorf("increment line item: %w", err)
		}
		if len(ccf.Item) == 0 {
			return cart.LineItem{}, errLineMissing
		}
		// the line exists, so the merged quantity would exceed the cap
		return cart.LineItem{}, fmt.Errorf("session %s product %d: %w", session, productID, cart.ErrInvalidQuantity)
	}
	var rec lineRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return cart.LineItem{}, fmt.Errorf("unmarshal line item: %w", err)
	}
	return rec.toLineItem(), nil
}

func (s *Store) createLine(ctx context.Context, session cart.Session, productID int64, quantity int) (cart.LineItem, error) {
	id, err := s.nextID(ctx, counterLineItem)
	if err != nil {
		return cart.LineItem{}, err
	}
	rec := lineRecord{
		SessionID: string(session),
		ProductID: productID,
		ID:        id,
		Quantity:  quantity,
		CreatedAt: s.nowFunc().UTC(),
	}
	lineMap, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return cart.LineItem{}, fmt.Errorf("marshal line item: %w", err)
	}
	ptrMap, err := attributevalue.MarshalMap(pointerRecord{
		SessionID:   fmt.Sprintf("#line#%d", id),
		ProductID:   0,
		LineSession: string(session),
		LineProduct: productID,
	})
	if err != nil {
		return cart.LineItem{}, fmt.Errorf("marshal line pointer: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           &s.tables.Cart,
				Item:                lineMap,
				ConditionExpression: awsString("attribute_not_exists(session_id)"),
			}},
			{Put: &types.Put{
				TableName: &s.tables.Cart,
				Item:      ptrMap,
			}},
		},
	})
	if err != nil {
		if conditionCancelled(err) {
			return cart.LineItem{}, errLineExists
		}
		return cart.LineItem{}, fmt.Errorf("create line item: %w", err)
	}
	return rec.toLineItem(), nil
}

func (s *Store) getPointer(ctx context.Context, id int64) (pointerRecord, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tables.Cart,
		Key:            pointerKey(id),
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return pointerRecord{}, fmt.Errorf("get line pointer: %w", err)
	}
	if len(out.Item) == 0 {
		return pointerRecord{}, fmt.Errorf("line item %d: %w", id, cart.ErrNotFound)
	}
	var ptr pointerRecord
	if err := attributevalue.UnmarshalMap(out.Item, &ptr); err != nil {
		return pointerRecord{}, fmt.Errorf("unmarshal line pointer: %w", err)
	}
	return ptr, nil
}

func (s *Store) SetQuantity(ctx context.Context, id int64, quantity int) (cart.LineItem, error) {
	ptr, err := s.getPointer(ctx, id)
	if err != nil {
		return cart.LineItem{}, err
	}

	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:           &s.tables.Cart,
		Key:                 lineKey(cart.Session(ptr.LineSession), ptr.LineProduct),
		UpdateExpression:    awsString("SET quantity = :q"),
		ConditionExpression: awsString("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q":  numberAttr(int64(quantity)),
			":id": numberAttr(id),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return cart.LineItem{}, fmt.Errorf("line item %d: %w", id, cart.ErrNotFound)
		}
		return cart.LineItem{}, fmt.Errorf("set quantity: %w", err)
	}
	var rec lineRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return cart.LineItem{}, fmt.Errorf("unmarshal line item: %w", err)
	}
	return rec.toLineItem(), nil
}

func (s *Store) DeleteLineItem(ctx context.Context, id int64) (cart.LineItem, error) {
	ptr, err := s.getPointer(ctx, id)
	if err != nil {
		return cart.LineItem{}, err
	}
	item := cart.LineItem{ID: id, SessionID: cart.Session(ptr.LineSession), ProductID: ptr.LineProduct}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:           &s.tables.Cart,
				Key:                 lineKey(item.SessionID, item.ProductID),
				ConditionExpression: awsString("id = :id"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":id": numberAttr(id),
				},
			}},
			{Delete: &types.Delete{
				TableName: &s.tables.Cart,
				Key:       pointerKey(id),
			}},
		},
	})
	if err == nil {
		return item, nil
	}
	if !conditionCancelled(err) {
		return cart.LineItem{}, fmt.Errorf("delete line item: %w", err)
	}

	// the line is already gone; drop the orphaned pointer
	if _, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tables.Cart,
		Key:       pointerKey(id),
	}); err != nil {
		return cart.LineItem{}, fmt.Errorf("delete line pointer: %w", err)
	}
	return cart.LineItem{}, fmt.Errorf("line item %d: %w", id, cart.ErrNotFound)
}

func (s *Store) DeleteSession(ctx context.Context, session cart.Session) error {
	items, err := s.ListLineItems(ctx, session)
	if err != nil {
		return err
	}

	// each line takes two transaction slots: the line and its pointer
	const perChunk = maxTransactItems / 2
	for start := 0; start < len(items); start += perChunk {
		end := min(start+perChunk, len(items))
		writes := make([]types.TransactWriteItem, 0, 2*(end-start))
		for _, it := range items[start:end] {
			writes = append(writes, deleteLineWrites(s.tables.Cart, it, false)...)
		}
		if _, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{TransactItems: writes}); err != nil {
			return fmt.Errorf("delete session items: %w", err)
		}
	}
	return nil
}

// deleteLineWrites removes a line and its pointer. With guard set, the line
// delete only succeeds if the stored quantity still matches.
func deleteLineWrites(table string, it cart.LineItem, guard bool) []types.TransactWriteItem {
	del := &types.Delete{
		TableName: awsString(table),
		Key:       lineKey(it.SessionID, it.ProductID),
	}
	if guard {
		del.ConditionExpression = awsString("id = :id AND quantity = :q")
		del.ExpressionAttributeValues = map[string]types.AttributeValue{
			":id": numberAttr(it.ID),
			":q":  numberAttr(int64(it.Quantity)),
		}
	}
	return []types.TransactWriteItem{
		{Delete: del},
		{Delete: &types.Delete{
			TableName: awsString(table),
			Key:       pointerKey(it.ID),
		}},
	}
}

func boolPtr(b bool) *bool { return &b }
