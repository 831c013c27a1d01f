package store

import "errors"

var (
	// ErrTypeMismatch is returned when a stored value does not match the kind
	// requested by a Field.
	ErrTypeMismatch = errors.New("generaldb: attribute type mismatch")

	// ErrAttributeNotFound is returned when a record exists but lacks the
	// requested attribute.
	ErrAttributeNotFound = errors.New("generaldb: attribute not found")

	// ErrInvalidJSON is returned when a JSON attribute value does not parse.
	ErrInvalidJSON = errors.New("generaldb: invalid JSON value")

	// ErrEmptyAttributeName is returned when an attribute has no name.
	ErrEmptyAttributeName = errors.New("generaldb: empty attribute name")

	// ErrNilValue is returned when an attribute to write carries no value.
	ErrNilValue = errors.New("generaldb: nil attribute value")

	// ErrNoRegion is returned when a store is opened without a region.
	ErrNoRegion = errors.New("generaldb: no region configured")

	// ErrNilTarget is returned when a copy is requested without a target store.
	ErrNilTarget = errors.New("generaldb: nil copy target")

	// ErrSameStore is returned when a store is asked to copy onto itself.
	ErrSameStore = errors.New("generaldb: copy source and target are the same store")
)
