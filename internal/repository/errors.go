package repository

import "errors"

var (
	// ErrNotFound is returned by writes that target a row that does not exist.
	// Reads return nil, nil instead.
	ErrNotFound = errors.New("not found")

	// ErrUnknownField is returned when a query filter names a field that has
	// no column and cannot live in a property's extra fields.
	ErrUnknownField = errors.New("unknown filter field")
)
