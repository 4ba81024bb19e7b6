package storage

import "errors"

// ErrNotFound is returned when a category or entry does not exist.
var ErrNotFound = errors.New("not found")

// SearchQuery describes an entry search across one or all categories.
// Nil pointer fields mean "no bound".
type SearchQuery struct {
	CategoryID *int64
	// CategoryType restricts results to entries of categories with this
	// type. Empty means all types.
	CategoryType string
	Term         string
	DateFrom     string
	DateTo       string
	ValueMin     *float64
	ValueMax     *float64
	Limit        int
}
