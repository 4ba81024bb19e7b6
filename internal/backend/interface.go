package backend

import (
	"context"

	"datatracker/internal/core"
	"datatracker/internal/storage"
)

// CategoryStore provides category persistence.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// EntryStore provides entry persistence.
type EntryStore interface {
	CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	GetEntry(ctx context.Context, id int64) (core.Entry, error)
	ListEntries(ctx context.Context, categoryID int64) ([]core.Entry, error)
	UpdateEntry(ctx context.Context, e core.Entry) error
	DeleteEntry(ctx context.Context, id int64) error
	SearchEntries(ctx context.Context, q storage.SearchQuery) ([]core.Entry, error)
	EntryExistsForMonth(ctx context.Context, categoryID int64, month string) (bool, error)
	LatestEntry(ctx context.Context, categoryID int64) (core.Entry, error)
}

// Store is the unified persistence interface the services depend on.
type Store interface {
	CategoryStore
	EntryStore
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the store instance and optional cleanup function
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
