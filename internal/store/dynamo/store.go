// Package dynamo persists carts, orders and submissions in DynamoDB.
//
// Tables:
//
//	cart:        PK session_id (S), SK product_id (N). Line items, plus one
//	             pointer item per line (session_id "#line#<id>", product_id 0)
//	             so that id-addressed operations are strongly consistent.
//	orders:      PK order_id (N)
//	submissions: PK kind (S), SK id (N)
//	counters:    PK name (S), attribute seq (N)
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nexssio/storefront/internal/aws"
	"github.com/nexssio/storefront/internal/cart"
	"github.com/nexssio/storefront/internal/contact"
	"github.com/nexssio/storefront/internal/orders"
)

// Tables names the DynamoDB tables used by the store.
type Tables struct {
	Cart        string
	Orders      string
	Submissions string
	Counters    string
}

// Store encapsulates all storefront persistence against DynamoDB.
type Store struct {
	client  aws.DynamoDBAPI
	tables  Tables
	nowFunc func() time.Time
}

var (
	_ cart.Repository    = (*Store)(nil)
	_ orders.Repository  = (*Store)(nil)
	_ contact.Repository = (*Store)(nil)
)

// NewStore creates a new Store.
func NewStore(client aws.DynamoDBAPI, tables Tables) *Store {
	return &Store{
		client:  client,
		tables:  tables,
		nowFunc: time.Now,
	}
}

// Counter names, one id space per entity type.
const (
	counterLineItem = "line_item"
	counterOrder    = "order"
	counterContact  = "contact"
	counterFeedback = "feedback"
)

// nextID atomically increments and returns the named counter.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tables.Counters,
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: name},
		},
		UpdateExpression: awsString("ADD seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	seq, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter %s: missing seq attribute", name)
	}
	id, err := strconv.ParseInt(seq.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", name, err)
	}
	return id, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// conditionCancelled reports whether a transaction was cancelled because one
// of its condition expressions failed.
func conditionCancelled(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, r := range tce.CancellationReasons {
		if r.Code != nil && *r.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

func numberAttr(v int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func awsString(s string) *string { return &s }
