// Package ddbtest provides DynamoDB test doubles for the general tables.
//
// [MemoryClient] is an in-memory implementation of the item and query
// operations used by the store, suitable for unit tests. [MockClient] lets a
// test script individual operations, for example to inject failures, and
// [Wrap] builds one on top of a MemoryClient. [LocalDynamoDB] connects to
// DynamoDB Local and creates or drops the physical tables for an environment.
//
//	mem := ddbtest.NewMemoryClient()
//	mem.CreateGeneralTables("", "TEST-")
//	s := store.New(mem, store.Config{})
package ddbtest
