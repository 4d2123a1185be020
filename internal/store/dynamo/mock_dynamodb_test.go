package dynamo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory DynamoDB double. It understands just the
// expressions the store issues: ADD/SET updates, attribute_exists,
// attribute_not_exists and AND-joined equality conditions, and
// "session_id = :s" queries.
type mockDynamo struct {
	mu       sync.Mutex
	schema   map[string][]string // table -> [hash key, range key]
	tables   map[string]map[string]map[string]types.AttributeValue
	pageSize int

	// beforeTransact runs (unlocked) before each TransactWriteItems call.
	beforeTransact func()
	failTransact   error
	transactCalls  int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		schema: map[string][]string{
			testTables.Cart:        {"session_id", "product_id"},
			testTables.Orders:      {"order_id"},
			testTables.Submissions: {"kind", "id"},
			testTables.Counters:    {"name"},
		},
		tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

var testTables = Tables{
	Cart:        "cart",
	Orders:      "orders",
	Submissions: "submissions",
	Counters:    "counters",
}

func attrString(v types.AttributeValue) string {
	switch a := v.(type) {
	case *types.AttributeValueMemberS:
		return a.Value
	case *types.AttributeValueMemberN:
		return a.Value
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (m *mockDynamo) keyOf(table string, item map[string]types.AttributeValue) (string, error) {
	attrs, ok := m.schema[table]
	if !ok {
		return "", fmt.Errorf("unknown table %q", table)
	}
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		v, ok := item[a]
		if !ok {
			return "", fmt.Errorf("table %s: missing key attribute %s", table, a)
		}
		parts = append(parts, attrString(v))
	}
	return strings.Join(parts, "|"), nil
}

func (m *mockDynamo) table(name string) map[string]map[string]types.AttributeValue {
	if _, ok := m.tables[name]; !ok {
		m.tables[name] = map[string]map[string]types.AttributeValue{}
	}
	return m.tables[name]
}

func attrEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return false
		}
		x, err1 := strconv.ParseFloat(av.Value, 64)
		y, err2 := strconv.ParseFloat(bv.Value, 64)
		return err1 == nil && err2 == nil && x == y
	}
	return false
}

// evalCondition evaluates a condition against item, which is nil if absent.
func evalCondition(expr *string, item map[string]types.AttributeValue, values map[string]types.AttributeValue) (bool, error) {
	if expr == nil || *expr == "" {
		return true, nil
	}
	for _, clause := range strings.Split(*expr, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case strings.HasPrefix(clause, "attribute_exists(") && strings.HasSuffix(clause, ")"):
			name := strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_exists("), ")")
			if _, ok := item[name]; !ok {
				return false, nil
			}
		case strings.HasPrefix(clause, "attribute_not_exists(") && strings.HasSuffix(clause, ")"):
			name := strings.TrimSuffix(strings.TrimPrefix(clause, "attribute_not_exists("), ")")
			if _, ok := item[name]; ok {
				return false, nil
			}
		case strings.Contains(clause, " <= "):
			lhs, rhs, _ := strings.Cut(clause, " <= ")
			limit, err := strconv.ParseFloat(attrString(values[rhs]), 64)
			if err != nil {
				return false, fmt.Errorf("value %s: %w", rhs, err)
			}
			got, ok := item[lhs]
			if !ok {
				return false, nil
			}
			cur, err := strconv.ParseFloat(attrString(got), 64)
			if err != nil || cur > limit {
				return false, nil
			}
		case strings.Contains(clause, " = "):
			lhs, rhs, _ := strings.Cut(clause, " = ")
			want, ok := values[rhs]
			if !ok {
				return false, fmt.Errorf("missing value %s", rhs)
			}
			got, ok := item[lhs]
			if !ok || !attrEqual(got, want) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported condition %q", clause)
		}
	}
	return true, nil
}

func applyUpdate(expr string, item map[string]types.AttributeValue, values map[string]types.AttributeValue) error {
	switch {
	case strings.HasPrefix(expr, "ADD "):
		name, ref, _ := strings.Cut(strings.TrimPrefix(expr, "ADD "), " ")
		delta, err := strconv.ParseInt(attrString(values[ref]), 10, 64)
		if err != nil {
			return err
		}
		var cur int64
		if v, ok := item[name]; ok {
			if cur, err = strconv.ParseInt(attrString(v), 10, 64); err != nil {
				return err
			}
		}
		item[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(cur+delta, 10)}
	case strings.HasPrefix(expr, "SET "):
		for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
			name, ref, ok := strings.Cut(strings.TrimSpace(assign), " = ")
			if !ok {
				return fmt.Errorf("unsupported assignment %q", assign)
			}
			item[name] = values[ref]
		}
	default:
		return fmt.Errorf("unsupported update %q", expr)
	}
	return nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table(*params.TableName)[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: maps.Clone(item)}, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(*params.TableName, params.Item)
	if err != nil {
		return nil, err
	}
	tbl := m.table(*params.TableName)
	ok, err := evalCondition(params.ConditionExpression, tbl[k], params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	tbl[k] = maps.Clone(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	tbl := m.table(*params.TableName)
	ok, err := evalCondition(params.ConditionExpression, tbl[k], params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		ccf := &types.ConditionalCheckFailedException{}
		if params.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
			ccf.Item = maps.Clone(tbl[k])
		}
		return nil, ccf
	}
	item := maps.Clone(tbl[k])
	if item == nil {
		item = maps.Clone(params.Key)
	}
	if err := applyUpdate(*params.UpdateExpression, item, params.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	tbl[k] = item
	return &dyn.UpdateItemOutput{Attributes: maps.Clone(item)}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.keyOf(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	tbl := m.table(*params.TableName)
	ok, err := evalCondition(params.ConditionExpression, tbl[k], params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(tbl, k)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if params.KeyConditionExpression == nil || *params.KeyConditionExpression != "session_id = :s" {
		return nil, errors.New("unsupported key condition")
	}
	want := params.ExpressionAttributeValues[":s"]

	var matched []map[string]types.AttributeValue
	for _, item := range m.table(*params.TableName) {
		if attrEqual(item["session_id"], want) {
			matched = append(matched, item)
		}
	}
	productID := func(item map[string]types.AttributeValue) int64 {
		n, _ := strconv.ParseInt(attrString(item["product_id"]), 10, 64)
		return n
	}
	slices.SortFunc(matched, func(a, b map[string]types.AttributeValue) int {
		return cmp.Compare(productID(a), productID(b))
	})

	if start := params.ExclusiveStartKey; start != nil {
		after := productID(start)
		i := slices.IndexFunc(matched, func(item map[string]types.AttributeValue) bool { return productID(item) > after })
		if i < 0 {
			matched = nil
		} else {
			matched = matched[i:]
		}
	}

	out := &dyn.QueryOutput{}
	if m.pageSize > 0 && len(matched) > m.pageSize {
		matched = matched[:m.pageSize]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"session_id": last["session_id"],
			"product_id": last["product_id"],
		}
	}
	for _, item := range matched {
		out.Items = append(out.Items, maps.Clone(item))
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func (m *mockDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	if m.beforeTransact != nil {
		hook := m.beforeTransact
		m.beforeTransact = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactCalls++
	if m.failTransact != nil {
		return nil, m.failTransact
	}
	if len(params.TransactItems) > 100 {
		return nil, errors.New("too many transact items")
	}

	// first pass: evaluate every condition
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	cancelled := false
	for i, it := range params.TransactItems {
		var (
			table  string
			key    map[string]types.AttributeValue
			cond   *string
			values map[string]types.AttributeValue
		)
		switch {
		case it.Put != nil:
			table, key, cond, values = *it.Put.TableName, it.Put.Item, it.Put.ConditionExpression, it.Put.ExpressionAttributeValues
		case it.Delete != nil:
			table, key, cond, values = *it.Delete.TableName, it.Delete.Key, it.Delete.ConditionExpression, it.Delete.ExpressionAttributeValues
		default:
			return nil, errors.New("unsupported transact item")
		}
		k, err := m.keyOf(table, key)
		if err != nil {
			return nil, err
		}
		ok, err := evalCondition(cond, m.table(table)[k], values)
		if err != nil {
			return nil, err
		}
		code := "None"
		if !ok {
			code = "ConditionalCheckFailed"
			cancelled = true
		}
		reasons[i] = types.CancellationReason{Code: awsString(code)}
	}
	if cancelled {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}

	// second pass: apply
	for _, it := range params.TransactItems {
		if p := it.Put; p != nil {
			k, _ := m.keyOf(*p.TableName, p.Item)
			m.table(*p.TableName)[k] = maps.Clone(p.Item)
		}
		if d := it.Delete; d != nil {
			k, _ := m.keyOf(*d.TableName, d.Key)
			delete(m.table(*d.TableName), k)
		}
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func (m *mockDynamo) count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table(table))
}
