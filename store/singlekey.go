package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/generaldb/internal/vkey"
)

// SingleKeyTable accesses virtual tables stored in "{env}generalsk",
// where each record is addressed by table + "-" + pk.
type SingleKeyTable struct {
	store *Store
}

// Name returns the physical table name.
func (t *SingleKeyTable) Name() string {
	return t.store.TableName(GeneralSK)
}

// Key returns the physical key of the record (table, pk).
func (t *SingleKeyTable) Key(table, pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		vkey.SingleKeyAttr: &types.AttributeValueMemberS{Value: vkey.Compose(table, pk)},
	}
}

// Put writes the record (table, pk) with attrs, replacing any existing record.
func (t *SingleKeyTable) Put(ctx context.Context, table, pk string, attrs ...Attribute) error {
	item := t.Key(table, pk)
	if err := marshalAttributes(item, attrs); err != nil {
		return err
	}

	_, err := t.store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.Name()),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", table, pk, err)
	}
	return nil
}

// Delete removes the record (table, pk). Deleting a missing record is not an error.
func (t *SingleKeyTable) Delete(ctx context.Context, table, pk string) error {
	_, err := t.store.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.Name()),
		Key:       t.Key(table, pk),
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, pk, err)
	}
	return nil
}

// Get reads f from the record (table, pk). The boolean reports whether the
// record exists.
func (t *SingleKeyTable) Get(ctx context.Context, table, pk string, f Field) (Value, bool, error) {
	item, err := t.getItem(ctx, table, pk, f)
	if err != nil || item == nil {
		return nil, false, err
	}

	v, err := unmarshalField(item, f)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// GetAttribute reads f from the record (table, pk). A missing record yields
// Char(""), unlike CompositeKeyTable.GetAttribute which yields nil.
func (t *SingleKeyTable) GetAttribute(ctx context.Context, table, pk string, f Field) (Value, error) {
	v, found, err := t.Get(ctx, table, pk, f)
	if err != nil {
		return nil, err
	}
	if !found {
		return Char(""), nil
	}
	return v, nil
}

// Item returns the raw record (table, pk), or nil if it does not exist.
func (t *SingleKeyTable) Item(ctx context.Context, table, pk string) (map[string]types.AttributeValue, error) {
	return t.getItem(ctx, table, pk, Field{})
}

func (t *SingleKeyTable) getItem(ctx context.Context, table, pk string, f Field) (map[string]types.AttributeValue, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(t.Name()),
		Key:       t.Key(table, pk),
	}

	if f.Name != "" {
		if err := projectGet(input, GeneralSK, f.Name); err != nil {
			return nil, err
		}
	}

	result, err := t.store.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, pk, err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}
	return result.Item, nil
}
