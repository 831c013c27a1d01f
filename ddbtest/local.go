package ddbtest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/generaldb/internal/vkey"
)

// DefaultLocalPort is the default port of DynamoDB Local.
const DefaultLocalPort = 8000

// LocalDynamoDB is a connection to a DynamoDB Local instance.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

// NewLocalClient returns an unsigned client for DynamoDB Local on localhost:port.
func NewLocalClient(port int) *dynamodb.Client {
	return dynamodb.New(dynamodb.Options{
		Region:       "us-east-1",
		Credentials:  aws.AnonymousCredentials{},
		BaseEndpoint: aws.String(fmt.Sprintf("http://localhost:%d", port)),
	})
}

// NewLocalDynamoDB returns a LocalDynamoDB for localhost:port.
func NewLocalDynamoDB(port int) *LocalDynamoDB {
	return &LocalDynamoDB{
		Client:   NewLocalClient(port),
		Endpoint: fmt.Sprintf("http://localhost:%d", port),
		Port:     port,
	}
}

// IsAvailable reports whether DynamoDB Local answers on the configured port.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", l.Port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	return err == nil
}

// WaitForAvailable polls until DynamoDB Local answers or timeout elapses.
func (l *LocalDynamoDB) WaitForAvailable(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if l.IsAvailable(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("DynamoDB Local not available at %s after %v", l.Endpoint, timeout)
}

// CreateGeneralTables creates "{env}generalsk" and "{env}generaldk" and waits
// for both to become active.
func (l *LocalDynamoDB) CreateGeneralTables(ctx context.Context, env string) error {
	return CreateGeneralTables(ctx, l.Client, env)
}

// DeleteGeneralTables deletes both general tables of env.
func (l *LocalDynamoDB) DeleteGeneralTables(ctx context.Context, env string) error {
	return DeleteGeneralTables(ctx, l.Client, env)
}

// TableAdmin is the DynamoDB surface needed to create and drop tables.
type TableAdmin interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// CreateGeneralTables creates the two general tables of env with the
// physical schema expected by the store, then waits for them to be active.
func CreateGeneralTables(ctx context.Context, client TableAdmin, env string) error {
	sk := vkey.TableName(env, vkey.SingleKeyTable)
	dk := vkey.TableName(env, vkey.CompositeKeyTable)

	if err := createTable(ctx, client, sk, vkey.SingleKeyAttr, ""); err != nil {
		return err
	}
	if err := createTable(ctx, client, dk, vkey.PartitionKeyAttr, vkey.RangeKeyAttr); err != nil {
		return err
	}
	for _, name := range []string{sk, dk} {
		if err := waitForTable(ctx, client, name, true, 30*time.Second); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGeneralTables deletes the two general tables of env and waits until
// they are gone. Missing tables are ignored.
func DeleteGeneralTables(ctx context.Context, client TableAdmin, env string) error {
	for _, base := range []string{vkey.SingleKeyTable, vkey.CompositeKeyTable} {
		name := vkey.TableName(env, base)
		_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(name)})
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				continue
			}
			return fmt.Errorf("delete table %s: %w", name, err)
		}
		if err := waitForTable(ctx, client, name, false, 30*time.Second); err != nil {
			return err
		}
	}
	return nil
}

func createTable(ctx context.Context, client TableAdmin, name, hashKey, rangeKey string) error {
	input := &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(hashKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
	if rangeKey != "" {
		input.AttributeDefinitions = append(input.AttributeDefinitions,
			types.AttributeDefinition{AttributeName: aws.String(rangeKey), AttributeType: types.ScalarAttributeTypeS})
		input.KeySchema = append(input.KeySchema,
			types.KeySchemaElement{AttributeName: aws.String(rangeKey), KeyType: types.KeyTypeRange})
	}

	if _, err := client.CreateTable(ctx, input); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// waitForTable polls DescribeTable until the table is active (active=true)
// or no longer exists (active=false).
func waitForTable(ctx context.Context, client TableAdmin, name string, active bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if !active && errors.As(err, &notFound) {
				return nil
			}
			if !errors.As(err, &notFound) {
				return fmt.Errorf("describe table %s: %w", name, err)
			}
		} else if active && out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("table %s did not reach the expected state within %v", name, timeout)
}
