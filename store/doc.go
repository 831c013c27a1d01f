// Package store multiplexes any number of virtual tables onto two physical
// DynamoDB tables.
//
// Every record belongs to a virtual table named by the caller. The name is
// folded into the stored key, so one pair of physical tables serves the
// whole application:
//
//	{env}generalsk   generalkey = table + "-" + key
//	{env}generaldk   generalpk  = table + "-" + primary key
//	                 generalrk  = table + "-" + range key
//
// The environment prefix (for example "TEST-") lets several deployments
// share one account and region. Keys are joined without escaping, so
// ("a-b", "c") and ("a", "b-c") address the same record.
//
// # Values
//
// Attributes carry one of four kinds of [Value]: [Char], [Int], [Short] or
// [JSON]. JSON documents are stored as native DynamoDB maps and lists, so a
// read returns the document in canonical form rather than the text that was
// written: compact, object keys sorted, numbers as stored. Writing
// {"zip":1, "city":"x"} reads back as {"city":"x","zip":1}.
//
// Attribute names are taken literally. Names such as "address.city" or
// "x[0]" are top-level attributes, not document paths.
//
//	s.AddItem(ctx, "Customer", "5555555000",
//	    store.Attr("name", store.Char("John Smith")),
//	    store.Attr("age", store.Int(29)))
//
//	name, err := s.GetAttribute(ctx, "Customer", "5555555000",
//	    store.FieldOf("name", store.KindChar))
//
// # Absent records
//
// [SingleKeyTable.Get] and [CompositeKeyTable.Get] report absence with a
// boolean. The older lookups differ: [Store.GetAttribute] returns Char("")
// for a missing record while [Store.GetRangeAttribute] returns nil. Range
// queries return an empty slice.
//
// # Copying
//
// [Store.CopySingleKeyTable], [Store.CopyCompositeKeyTable] and
// [Store.CopyAll] scan one store and write every item verbatim into another,
// typically a different environment or region.
//
// # Errors
//
//   - [ErrTypeMismatch] - stored value does not match the requested kind
//   - [ErrAttributeNotFound] - record exists without the attribute; a range
//     query fails when any record in the range lacks it
//   - [ErrInvalidJSON] - JSON value does not parse
//   - [ErrNoRegion] - store opened without a region
//   - [ErrSameStore] - copy onto itself
package store
