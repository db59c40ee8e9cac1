package usecase

import (
	"context"
	"time"

	"hqcatalog/internal/api"
	"hqcatalog/internal/catalog"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks hqcatalog/internal/usecase Backend,OfflineStore

// Backend interface
// Define the contract for the catalog REST backend.
type Backend interface {
	// List every entry in the catalog
	List(ctx context.Context) ([]catalog.Entry, error)
	// Get entry by ID
	Get(ctx context.Context, id int) (catalog.Entry, error)
	Create(ctx context.Context, e catalog.Entry) (catalog.Entry, error)
	Update(ctx context.Context, id int, e catalog.Entry) (catalog.Entry, error)
	Delete(ctx context.Context, id int) error
	// Borrow and Return move an entry between the loan states
	Borrow(ctx context.Context, id int) (catalog.Entry, error)
	Return(ctx context.Context, id int) (catalog.Entry, error)
	Stats(ctx context.Context) (catalog.Stats, error)
	Health(ctx context.Context) (api.Health, error)
}

// OfflineStore is the in-memory dataset mutated when the backend is unreachable.
type OfflineStore interface {
	Get(id int) (catalog.Entry, error)
	Toggle(id int, now time.Time) (catalog.Entry, error)
}
