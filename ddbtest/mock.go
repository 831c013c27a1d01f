package ddbtest

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// APICall is the signature shared by the DynamoDB client operations.
type APICall[T, U any] func(context.Context, *T, ...func(*dynamodb.Options)) (*U, error)

// MockClient is an expectation-based mock. Each operation calls the matching
// func field; NewMockClient installs fields that fail the test when called.
type MockClient struct {
	GetFunc    APICall[dynamodb.GetItemInput, dynamodb.GetItemOutput]
	PutFunc    APICall[dynamodb.PutItemInput, dynamodb.PutItemOutput]
	DeleteFunc APICall[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput]
	QueryFunc  APICall[dynamodb.QueryInput, dynamodb.QueryOutput]
	ScanFunc   APICall[dynamodb.ScanInput, dynamodb.ScanOutput]
}

// NewMockClient returns a MockClient whose operations fail t unless replaced.
func NewMockClient(t *testing.T) *MockClient {
	return &MockClient{
		GetFunc:    unexpected[dynamodb.GetItemInput, dynamodb.GetItemOutput](t, "GetItem"),
		PutFunc:    unexpected[dynamodb.PutItemInput, dynamodb.PutItemOutput](t, "PutItem"),
		DeleteFunc: unexpected[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput](t, "DeleteItem"),
		QueryFunc:  unexpected[dynamodb.QueryInput, dynamodb.QueryOutput](t, "Query"),
		ScanFunc:   unexpected[dynamodb.ScanInput, dynamodb.ScanOutput](t, "Scan"),
	}
}

// Wrap returns a MockClient that forwards every operation to c.
// Individual fields can then be replaced to inject failures.
func Wrap(c *MemoryClient) *MockClient {
	return &MockClient{
		GetFunc:    c.GetItem,
		PutFunc:    c.PutItem,
		DeleteFunc: c.DeleteItem,
		QueryFunc:  c.Query,
		ScanFunc:   c.Scan,
	}
}

func unexpected[T, U any](t *testing.T, op string) APICall[T, U] {
	return func(ctx context.Context, params *T, optFns ...func(*dynamodb.Options)) (*U, error) {
		t.Helper()
		t.Fatalf("unexpected call to %s", op)
		return nil, nil
	}
}

func (m *MockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetFunc(ctx, params, optFns...)
}

func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.PutFunc(ctx, params, optFns...)
}

func (m *MockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return m.DeleteFunc(ctx, params, optFns...)
}

func (m *MockClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return m.QueryFunc(ctx, params, optFns...)
}

func (m *MockClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return m.ScanFunc(ctx, params, optFns...)
}
