package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/generaldb/internal/vkey"
)

// CompositeKeyTable accesses virtual tables stored in "{env}generaldk",
// where each record is addressed by (table + "-" + pk, table + "-" + rk).
// All records sharing table and pk form one range.
type CompositeKeyTable struct {
	store *Store
}

// Record is one record of a range returned by QueryItems.
type Record struct {
	// RangeKey is the range key with the virtual table prefix removed.
	RangeKey string

	// Raw is the stored item.
	Raw map[string]types.AttributeValue
}

// Value reads f from the record.
func (r Record) Value(f Field) (Value, error) {
	return unmarshalField(r.Raw, f)
}

// Name returns the physical table name.
func (t *CompositeKeyTable) Name() string {
	return t.store.TableName(GeneralDK)
}

// Key returns the physical key of the record (table, pk, rk).
func (t *CompositeKeyTable) Key(table, pk, rk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		vkey.PartitionKeyAttr: &types.AttributeValueMemberS{Value: vkey.Compose(table, pk)},
		vkey.RangeKeyAttr:     &types.AttributeValueMemberS{Value: vkey.Compose(table, rk)},
	}
}

// Put writes the record (table, pk, rk) with attrs, replacing any existing record.
func (t *CompositeKeyTable) Put(ctx context.Context, table, pk, rk string, attrs ...Attribute) error {
	item := t.Key(table, pk, rk)
	if err := marshalAttributes(item, attrs); err != nil {
		return err
	}

	_, err := t.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.Name()),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s/%s: %w", table, pk, rk, err)
	}
	return nil
}

// Delete removes the record (table, pk, rk). Deleting a missing record is not an error.
func (t *CompositeKeyTable) Delete(ctx context.Context, table, pk, rk string) error {
	_, err := t.store.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.Name()),
		Key:       t.Key(table, pk, rk),
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s/%s: %w", table, pk, rk, err)
	}
	return nil
}

// DeleteAll removes every record of table under pk, whatever its range key.
// Records are queried and deleted one by one; the count deleted before any
// failure is returned with the error.
func (t *CompositeKeyTable) DeleteAll(ctx context.Context, table, pk string) (int, error) {
	expr, err := buildExpr(withProjection(expression.NewBuilder().
		WithKeyCondition(keyEqual(vkey.PartitionKeyAttr, vkey.Compose(table, pk))), GeneralDK))
	if err != nil {
		return 0, err
	}

	deleted := 0
	paginator := dynamodb.NewQueryPaginator(t.store.client, &dynamodb.QueryInput{
		TableName:                 aws.String(t.Name()),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("query %s/%s: %w", table, pk, err)
		}
		for _, item := range page.Items {
			key := map[string]types.AttributeValue{
				vkey.PartitionKeyAttr: item[vkey.PartitionKeyAttr],
				vkey.RangeKeyAttr:     item[vkey.RangeKeyAttr],
			}
			if _, err := t.store.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(t.Name()),
				Key:       key,
			}); err != nil {
				return deleted, fmt.Errorf("delete %s/%s: %w", table, pk, err)
			}
			deleted++
			t.store.trace().
				Str("table", t.Name()).
				Str("key", describeKey(GeneralDK, key)).
				Msg("item deleted")
		}
	}

	return deleted, nil
}

// Get reads f from the record (table, pk, rk). The boolean reports whether
// the record exists.
func (t *CompositeKeyTable) Get(ctx context.Context, table, pk, rk string, f Field) (Value, bool, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(t.Name()),
		Key:       t.Key(table, pk, rk),
	}
	if err := projectGet(input, GeneralDK, f.Name); err != nil {
		return nil, false, err
	}

	result, err := t.store.client.GetItem(ctx, input)
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s/%s: %w", table, pk, rk, err)
	}
	if len(result.Item) == 0 {
		return nil, false, nil
	}

	v, err := unmarshalField(result.Item, f)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// GetAttribute reads f from the record (table, pk, rk). A missing record
// yields a nil Value, unlike SingleKeyTable.GetAttribute which yields Char("").
func (t *CompositeKeyTable) GetAttribute(ctx context.Context, table, pk, rk string, f Field) (Value, error) {
	v, _, err := t.Get(ctx, table, pk, rk, f)
	return v, err
}

// Query reads f from every record of table under pk, ordered by range key.
// It returns an empty slice when the range is empty.
func (t *CompositeKeyTable) Query(ctx context.Context, table, pk string, f Field) ([]Value, error) {
	values := []Value{}
	err := t.query(ctx, table, pk, []string{f.Name}, func(item map[string]types.AttributeValue) error {
		v, err := unmarshalField(item, f)
		if err != nil {
			return err
		}
		values = append(values, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// QueryItems returns every record of table under pk, ordered by range key.
func (t *CompositeKeyTable) QueryItems(ctx context.Context, table, pk string) ([]Record, error) {
	records := []Record{}
	err := t.query(ctx, table, pk, nil, func(item map[string]types.AttributeValue) error {
		rec := Record{Raw: item}
		if rk, ok := item[vkey.RangeKeyAttr].(*types.AttributeValueMemberS); ok {
			rec.RangeKey, _ = vkey.Strip(table, rk.Value)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// query pages through the range (table, pk) in ascending range key order.
// With no names, or names no projection can address, whole items are read.
func (t *CompositeKeyTable) query(ctx context.Context, table, pk string, names []string, fn func(map[string]types.AttributeValue) error) error {
	builder := expression.NewBuilder().
		WithKeyCondition(keyEqual(vkey.PartitionKeyAttr, vkey.Compose(table, pk)))
	if len(names) > 0 {
		builder = withProjection(builder, GeneralDK, names...)
	}
	expr, err := buildExpr(builder)
	if err != nil {
		return err
	}

	paginator := dynamodb.NewQueryPaginator(t.store.client, &dynamodb.QueryInput{
		TableName:                 aws.String(t.Name()),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("query %s/%s: %w", table, pk, err)
		}
		for _, item := range page.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
	}
	return nil
}
