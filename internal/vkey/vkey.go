// Package vkey composes the physical keys and table names used to multiplex
// virtual tables onto the two general DynamoDB tables.
package vkey

import "strings"

const (
	// Separator joins a virtual table name and a key. It is never escaped.
	Separator = "-"

	// SingleKeyTable is the base name of the single-key physical table.
	SingleKeyTable = "generalsk"

	// CompositeKeyTable is the base name of the composite-key physical table.
	CompositeKeyTable = "generaldk"

	// SingleKeyAttr is the hash key attribute of the single-key table.
	SingleKeyAttr = "generalkey"

	// PartitionKeyAttr is the hash key attribute of the composite-key table.
	PartitionKeyAttr = "generalpk"

	// RangeKeyAttr is the range key attribute of the composite-key table.
	RangeKeyAttr = "generalrk"
)

// Compose builds the stored key for a virtual table: table + "-" + key.
//
// Two different (table, key) pairs can compose to the same string, e.g.
// ("a-b", "c") and ("a", "b-c"). Stored data depends on this exact layout,
// so the collision is kept.
func Compose(table, key string) string {
	return table + Separator + key
}

// Strip removes the virtual table prefix from a composed key.
// It reports false when the composed key does not start with table + "-".
func Strip(table, composed string) (string, bool) {
	return strings.CutPrefix(composed, table+Separator)
}

// TableName prefixes a physical table base name with an environment.
func TableName(env, base string) string {
	return env + base
}

// BaseTable reports which general table a physical table name refers to,
// ignoring any environment prefix.
func BaseTable(physical string) (string, bool) {
	switch {
	case strings.HasSuffix(physical, SingleKeyTable):
		return SingleKeyTable, true
	case strings.HasSuffix(physical, CompositeKeyTable):
		return CompositeKeyTable, true
	}
	return "", false
}

// Environment returns the environment prefix of a physical table name.
func Environment(physical string) (string, bool) {
	base, ok := BaseTable(physical)
	if !ok {
		return "", false
	}
	return strings.TrimSuffix(physical, base), true
}
