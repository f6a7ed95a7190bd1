package model

import "errors"

// Table parsing errors. Both are returned wrapped; use errors.Is.
var (
	// ErrEmptyTable is returned when import input is empty or whitespace.
	ErrEmptyTable = errors.New("copyright table is empty")

	// ErrMalformedTable is returned when import input is not a JSON object
	// of copyright records.
	ErrMalformedTable = errors.New("malformed copyright table")
)
