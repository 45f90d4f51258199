package query

import "errors"

// Store implementations wrap or return these so callers need not import a driver.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
