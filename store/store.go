package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/jacentio/generaldb/internal/vkey"
)

// Client is the subset of the DynamoDB API used by Store.
// *dynamodb.Client satisfies it. Copies compare clients by identity to reject
// copying a store onto itself, so clients should be pointers.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Table identifies one of the two physical tables.
type Table int

const (
	// GeneralSK is the single-key table ("generalsk").
	GeneralSK Table = iota
	// GeneralDK is the composite-key table ("generaldk").
	GeneralDK
)

func (t Table) String() string {
	if t == GeneralDK {
		return vkey.CompositeKeyTable
	}
	return vkey.SingleKeyTable
}

// KeyAttributes returns the key attribute names of the table.
func (t Table) KeyAttributes() []string {
	if t == GeneralDK {
		return []string{vkey.PartitionKeyAttr, vkey.RangeKeyAttr}
	}
	return []string{vkey.SingleKeyAttr}
}

// Store multiplexes virtual tables onto the two general tables of one
// environment. The client is owned by the Store and never replaced.
type Store struct {
	client Client
	env    string
	log    zerolog.Logger
	debug  bool
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		env:    config.Environment,
		log:    config.Logger.With().Str("env", config.Environment).Logger(),
		debug:  config.Debug,
	}
}

// Environment returns the prefix applied to the physical table names.
func (s *Store) Environment() string {
	return s.env
}

// TableName returns the physical name of t in this store's environment.
func (s *Store) TableName(t Table) string {
	return vkey.TableName(s.env, t.String())
}

// SingleKey returns the handle for the single-key table.
func (s *Store) SingleKey() *SingleKeyTable {
	return &SingleKeyTable{store: s}
}

// CompositeKey returns the handle for the composite-key table.
func (s *Store) CompositeKey() *CompositeKeyTable {
	return &CompositeKeyTable{store: s}
}

// PutRaw writes a raw item, already carrying its composed key, into t.
func (s *Store) PutRaw(ctx context.Context, t Table, item map[string]types.AttributeValue) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.TableName(t)),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.TableName(t), err)
	}
	return nil
}

// DeleteRaw deletes the item with the given raw key from t.
func (s *Store) DeleteRaw(ctx context.Context, t Table, key map[string]types.AttributeValue) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.TableName(t)),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.TableName(t), err)
	}
	return nil
}

// trace logs a per-item event when debug logging is enabled.
func (s *Store) trace() *zerolog.Event {
	if !s.debug {
		return nil
	}
	return s.log.Debug()
}

// --- Single-key convenience API ---

// AddItem upserts the record (table, pk) in the single-key table.
func (s *Store) AddItem(ctx context.Context, table, pk string, attrs ...Attribute) error {
	return s.SingleKey().Put(ctx, table, pk, attrs...)
}

// DeleteItem deletes the record (table, pk) from the single-key table.
func (s *Store) DeleteItem(ctx context.Context, table, pk string) error {
	return s.SingleKey().Delete(ctx, table, pk)
}

// GetAttribute reads f from the record (table, pk) of the single-key table.
// A missing record yields Char("").
func (s *Store) GetAttribute(ctx context.Context, table, pk string, f Field) (Value, error) {
	return s.SingleKey().GetAttribute(ctx, table, pk, f)
}

// --- Composite-key convenience API ---

// AddRangeItem upserts the record (table, pk, rk) in the composite-key table.
func (s *Store) AddRangeItem(ctx context.Context, table, pk, rk string, attrs ...Attribute) error {
	return s.CompositeKey().Put(ctx, table, pk, rk, attrs...)
}

// DeleteRangeItem deletes the record (table, pk, rk) from the composite-key table.
func (s *Store) DeleteRangeItem(ctx context.Context, table, pk, rk string) error {
	return s.CompositeKey().Delete(ctx, table, pk, rk)
}

// DeleteItems deletes every record of table under pk from the composite-key table.
func (s *Store) DeleteItems(ctx context.Context, table, pk string) (int, error) {
	return s.CompositeKey().DeleteAll(ctx, table, pk)
}

// GetRangeAttribute reads f from the record (table, pk, rk) of the
// composite-key table. A missing record yields a nil Value.
func (s *Store) GetRangeAttribute(ctx context.Context, table, pk, rk string, f Field) (Value, error) {
	return s.CompositeKey().GetAttribute(ctx, table, pk, rk, f)
}

// GetAttributes reads f from every record of table under pk, in range key order.
func (s *Store) GetAttributes(ctx context.Context, table, pk string, f Field) ([]Value, error) {
	return s.CompositeKey().Query(ctx, table, pk, f)
}
