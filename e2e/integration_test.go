//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
//
// By default the tests use DynamoDB Local on localhost:8000. Set
// GENERALDB_E2E_PROFILE and GENERALDB_E2E_REGION to run against an AWS account.
package e2e

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/generaldb/ddbtest"
	"github.com/jacentio/generaldb/store"
)

var (
	testID    string
	sourceEnv string
	targetEnv string

	ddbClient   *dynamodb.Client
	sourceStore *store.Store
	targetStore *store.Store
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	// Unique environments per run keep concurrent runs apart
	testID = strings.ToUpper(uuid.New().String()[:8])
	sourceEnv = fmt.Sprintf("E2E-%s-", testID)
	targetEnv = fmt.Sprintf("E2E-%s-TEST-", testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Environments: %q -> %q\n", sourceEnv, targetEnv)

	ctx := context.Background()
	client, err := newClient(ctx)
	if err != nil {
		fmt.Printf("Failed to create DynamoDB client: %v\n", err)
		os.Exit(1)
	}
	ddbClient = client

	for _, env := range []string{sourceEnv, targetEnv} {
		if err := ddbtest.CreateGeneralTables(ctx, ddbClient, env); err != nil {
			fmt.Printf("Failed to create tables: %v\n", err)
			os.Exit(1)
		}
	}

	sourceStore = store.New(ddbClient, store.Config{Environment: sourceEnv})
	targetStore = store.New(ddbClient, store.Config{Environment: targetEnv})

	code := m.Run()

	for _, env := range []string{sourceEnv, targetEnv} {
		if err := ddbtest.DeleteGeneralTables(ctx, ddbClient, env); err != nil {
			fmt.Printf("Failed to delete tables: %v\n", err)
		}
	}

	os.Exit(code)
}

func newClient(ctx context.Context) (*dynamodb.Client, error) {
	profile := os.Getenv("GENERALDB_E2E_PROFILE")
	if profile == "" {
		local := ddbtest.NewLocalDynamoDB(ddbtest.DefaultLocalPort)
		if err := local.WaitForAvailable(ctx, 10*time.Second); err != nil {
			return nil, err
		}
		return local.Client, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithSharedConfigProfile(profile)}
	if region := os.Getenv("GENERALDB_E2E_REGION"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// --- Tests ---

func TestCustomerScenario(t *testing.T) {
	ctx := context.Background()
	s := sourceStore
	customer := "5555555000"

	require.NoError(t, s.AddItem(ctx, "Customer", customer,
		store.Attr("name", store.Char("John Smith")),
		store.Attr("age", store.Int(29)),
		store.Attr("profile", store.JSON(`{"nickname":"","tags":["vip"]}`))))
	require.NoError(t, s.AddRangeItem(ctx, "CustomerPhone", customer, "(+1)555-555-555",
		store.Attr("PhoneType", store.Char("home"))))
	require.NoError(t, s.AddRangeItem(ctx, "CustomerPhone", customer, "(+1)111-111-111",
		store.Attr("PhoneType", store.Char("work"))))

	name, err := s.GetAttribute(ctx, "Customer", customer, store.FieldOf("name", store.KindChar))
	require.NoError(t, err)
	assert.Equal(t, store.Char("John Smith"), name)

	profile, err := s.GetAttribute(ctx, "Customer", customer, store.FieldOf("profile", store.KindJSON))
	require.NoError(t, err)
	assert.Equal(t, store.JSON(`{"nickname":"","tags":["vip"]}`), profile)

	phones, err := s.GetAttributes(ctx, "CustomerPhone", customer, store.FieldOf("PhoneType", store.KindChar))
	require.NoError(t, err)
	assert.Equal(t, []store.Value{store.Char("work"), store.Char("home")}, phones)

	deleted, err := s.DeleteItems(ctx, "CustomerPhone", customer)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	phones, err = s.GetAttributes(ctx, "CustomerPhone", customer, store.FieldOf("PhoneType", store.KindChar))
	require.NoError(t, err)
	assert.Empty(t, phones)

	require.NoError(t, s.DeleteItem(ctx, "Customer", customer))
	name, err = s.GetAttribute(ctx, "Customer", customer, store.FieldOf("name", store.KindChar))
	require.NoError(t, err)
	assert.Equal(t, store.Char(""), name)

	missing, err := s.GetRangeAttribute(ctx, "CustomerPhone", customer, "(+1)555-555-555", store.FieldOf("PhoneType", store.KindChar))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestKeyCollision(t *testing.T) {
	ctx := context.Background()
	s := sourceStore

	require.NoError(t, s.AddItem(ctx, "a-b", "c", store.Attr("v", store.Short(7))))
	t.Cleanup(func() { _ = s.DeleteItem(ctx, "a", "b-c") })

	got, err := s.GetAttribute(ctx, "a", "b-c", store.FieldOf("v", store.KindShort))
	require.NoError(t, err)
	assert.Equal(t, store.Short(7), got)
}

func TestCopyToEnvironment(t *testing.T) {
	ctx := context.Background()

	const n = 25
	for i := 0; i < n; i++ {
		require.NoError(t, sourceStore.AddItem(ctx, "CopyTest", fmt.Sprintf("%03d", i),
			store.Attr("n", store.Int(int32(i)))))
	}

	copied, err := sourceStore.CopySingleKeyTable(ctx, targetStore)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, copied, n)

	for i := 0; i < n; i++ {
		pk := fmt.Sprintf("%03d", i)
		want, err := sourceStore.GetAttribute(ctx, "CopyTest", pk, store.FieldOf("n", store.KindInt))
		require.NoError(t, err)
		got, err := targetStore.GetAttribute(ctx, "CopyTest", pk, store.FieldOf("n", store.KindInt))
		require.NoError(t, err)
		assert.Equal(t, want, got, "record %s", pk)
	}
}
