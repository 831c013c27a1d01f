package ddbtest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/generaldb/internal/vkey"
)

// MemoryClient is an in-memory DynamoDB serving GetItem, PutItem, DeleteItem,
// Query and Scan. Query supports equality key conditions as produced by the
// expression builder and returns items ordered by range key. Tables must be
// created before use; unknown tables fail with ResourceNotFoundException.
type MemoryClient struct {
	mu     sync.Mutex
	tables map[string]*memTable

	// PageSize caps the items returned per Query or Scan page when the
	// request sets no smaller Limit. Zero means unlimited.
	PageSize int32
}

type memTable struct {
	hashKey  string
	rangeKey string
	items    map[string]map[string]types.AttributeValue
}

// NewMemoryClient returns an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{tables: make(map[string]*memTable)}
}

// CreateTable creates an empty table keyed by hashKey and, if non-empty, rangeKey.
// Creating an existing table clears it.
func (m *MemoryClient) CreateTable(name, hashKey, rangeKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &memTable{
		hashKey:  hashKey,
		rangeKey: rangeKey,
		items:    make(map[string]map[string]types.AttributeValue),
	}
}

// CreateGeneralTables creates "{env}generalsk" and "{env}generaldk" for each env.
// With no envs the unprefixed tables are created.
func (m *MemoryClient) CreateGeneralTables(envs ...string) {
	if len(envs) == 0 {
		envs = []string{""}
	}
	for _, env := range envs {
		m.CreateTable(vkey.TableName(env, vkey.SingleKeyTable), vkey.SingleKeyAttr, "")
		m.CreateTable(vkey.TableName(env, vkey.CompositeKeyTable), vkey.PartitionKeyAttr, vkey.RangeKeyAttr)
	}
}

// Len returns the number of items in the table, or -1 if it does not exist.
func (m *MemoryClient) Len(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return -1
	}
	return len(t.items)
}

// Items returns copies of every item in the table in key order.
func (m *MemoryClient) Items(table string) []map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[table]
	if !ok {
		return nil
	}
	all := t.sorted(func(map[string]types.AttributeValue) bool { return true })
	out := make([]map[string]types.AttributeValue, len(all))
	for i, item := range all {
		out[i] = cloneItem(item)
	}
	return out
}

// GetItem implements the DynamoDB GetItem operation.
func (m *MemoryClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := t.id(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[id]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{
		Item: project(item, params.ProjectionExpression, params.ExpressionAttributeNames),
	}, nil
}

// PutItem implements the DynamoDB PutItem operation.
func (m *MemoryClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := t.id(params.Item)
	if err != nil {
		return nil, err
	}
	t.items[id] = cloneItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem implements the DynamoDB DeleteItem operation.
func (m *MemoryClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	id, err := t.id(params.Key)
	if err != nil {
		return nil, err
	}
	delete(t.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query implements the DynamoDB Query operation for equality key conditions.
func (m *MemoryClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	conds, err := parseKeyCondition(aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	if _, ok := conds[t.hashKey]; !ok {
		return nil, validationError("query condition must constrain hash key %q", t.hashKey)
	}

	matches := t.sorted(func(item map[string]types.AttributeValue) bool {
		for name, want := range conds {
			if !equalKey(item[name], want) {
				return false
			}
		}
		return true
	})
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}

	page, last := m.page(t, matches, params.ExclusiveStartKey, aws.ToInt32(params.Limit))
	out := &dynamodb.QueryOutput{LastEvaluatedKey: last}
	for _, item := range page {
		out.Items = append(out.Items, project(item, params.ProjectionExpression, params.ExpressionAttributeNames))
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = out.Count
	return out, nil
}

// Scan implements the DynamoDB Scan operation. Items are returned in key order.
func (m *MemoryClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	all := t.sorted(func(map[string]types.AttributeValue) bool { return true })
	page, last := m.page(t, all, params.ExclusiveStartKey, aws.ToInt32(params.Limit))
	out := &dynamodb.ScanOutput{LastEvaluatedKey: last}
	for _, item := range page {
		out.Items = append(out.Items, project(item, params.ProjectionExpression, params.ExpressionAttributeNames))
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = out.Count
	return out, nil
}

func (m *MemoryClient) table(name *string) (*memTable, error) {
	t, ok := m.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String("Requested resource not found: Table: " + aws.ToString(name) + " not found"),
		}
	}
	return t, nil
}

// page resumes after start and cuts the result at limit, returning the key
// of the last item when more items remain.
func (m *MemoryClient) page(t *memTable, items []map[string]types.AttributeValue, start map[string]types.AttributeValue, limit int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	if len(start) > 0 {
		startID, err := t.id(start)
		if err == nil {
			for i, item := range items {
				if id, _ := t.id(item); id == startID {
					items = items[i+1:]
					break
				}
			}
		}
	}

	size := limit
	if m.PageSize > 0 && (size <= 0 || m.PageSize < size) {
		size = m.PageSize
	}
	if size <= 0 || int(size) >= len(items) {
		return items, nil
	}
	items = items[:size]
	return items, t.key(items[len(items)-1])
}

func (t *memTable) id(key map[string]types.AttributeValue) (string, error) {
	h, ok := key[t.hashKey]
	if !ok {
		return "", validationError("missing key attribute %q", t.hashKey)
	}
	id := keyString(h)
	if t.rangeKey != "" {
		r, ok := key[t.rangeKey]
		if !ok {
			return "", validationError("missing key attribute %q", t.rangeKey)
		}
		id += "\x00" + keyString(r)
	}
	return id, nil
}

func (t *memTable) key(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{t.hashKey: item[t.hashKey]}
	if t.rangeKey != "" {
		key[t.rangeKey] = item[t.rangeKey]
	}
	return key
}

// sorted returns the items accepted by keep, ordered by hash key then range key.
func (t *memTable) sorted(keep func(map[string]types.AttributeValue) bool) []map[string]types.AttributeValue {
	var out []map[string]types.AttributeValue
	for _, item := range t.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := compareKey(out[i][t.hashKey], out[j][t.hashKey]); c != 0 {
			return c < 0
		}
		if t.rangeKey == "" {
			return false
		}
		return compareKey(out[i][t.rangeKey], out[j][t.rangeKey]) < 0
	})
	return out
}

// parseKeyCondition parses "#0 = :0" or "(#0 = :0) AND (#1 = :1)" into a map
// of attribute name to required value.
func parseKeyCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, validationError("missing key condition expression")
	}
	conds := make(map[string]types.AttributeValue)
	for _, part := range strings.Split(expr, " AND ") {
		part = strings.TrimSpace(part)
		part = strings.TrimSuffix(strings.TrimPrefix(part, "("), ")")
		lhs, rhs, ok := strings.Cut(part, "=")
		if !ok {
			return nil, validationError("unsupported key condition %q", part)
		}
		name := resolveName(strings.TrimSpace(lhs), names)
		v, ok := values[strings.TrimSpace(rhs)]
		if !ok {
			return nil, validationError("undefined expression value %q", strings.TrimSpace(rhs))
		}
		conds[name] = v
	}
	return conds, nil
}

func resolveName(token string, names map[string]string) string {
	if strings.HasPrefix(token, "#") {
		if n, ok := names[token]; ok {
			return n
		}
	}
	return token
}

// project returns a copy of item restricted to the projected top-level attributes.
func project(item map[string]types.AttributeValue, expr *string, names map[string]string) map[string]types.AttributeValue {
	if aws.ToString(expr) == "" {
		return cloneItem(item)
	}
	out := make(map[string]types.AttributeValue)
	for _, token := range strings.Split(aws.ToString(expr), ",") {
		name := resolveName(strings.TrimSpace(token), names)
		if v, ok := item[name]; ok {
			out[name] = v
		}
	}
	return out
}

func cloneItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func keyString(v types.AttributeValue) string {
	switch v := v.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value
	case *types.AttributeValueMemberN:
		return "N:" + v.Value
	case *types.AttributeValueMemberB:
		return "B:" + string(v.Value)
	default:
		return fmt.Sprintf("%T", v)
	}
}

func equalKey(a, b types.AttributeValue) bool {
	if a == nil || b == nil {
		return false
	}
	return keyString(a) == keyString(b)
}

// compareKey orders strings and binaries bytewise and numbers numerically.
func compareKey(a, b types.AttributeValue) int {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		if bv, ok := b.(*types.AttributeValueMemberS); ok {
			return strings.Compare(av.Value, bv.Value)
		}
	case *types.AttributeValueMemberN:
		if bv, ok := b.(*types.AttributeValueMemberN); ok {
			x, _ := strconv.ParseFloat(av.Value, 64)
			y, _ := strconv.ParseFloat(bv.Value, 64)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case *types.AttributeValueMemberB:
		if bv, ok := b.(*types.AttributeValueMemberB); ok {
			return bytes.Compare(av.Value, bv.Value)
		}
	}
	return strings.Compare(keyString(a), keyString(b))
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("ValidationException: "+format, args...)
}
