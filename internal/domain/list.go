// Package domain holds shared repository contracts used across document
// and stock services.
package domain

// ListFilter is a shared filter for list queries.
type ListFilter struct {
	Limit   int
	Offset  int
	OrderBy string
	Desc    bool

	// Filters holds column-value equality filters. Keys are validated
	// against an allow-list inside each repository.
	Filters map[string]any
}

// Normalize applies defaults and caps to the filter.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// ListResult is a page of items with the total count for pagination.
type ListResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}
