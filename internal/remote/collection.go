package remote

import "context"

// Collection is a document collection scoped to one user, backed by a store
// that can push full snapshots whenever the collection changes.
type Collection[T any] interface {
	// FetchAll returns every document for the user in no particular order.
	FetchAll(ctx context.Context, userID string) ([]T, error)
	// Add persists item and returns its document id. A preset id is honored,
	// which makes the write an idempotent upsert.
	Add(ctx context.Context, userID string, item T) (string, error)
	// Update merges fields into an existing document.
	Update(ctx context.Context, userID, id string, fields map[string]any) error
	Delete(ctx context.Context, userID, id string) error
	// Subscribe opens a change feed. The first Next call yields the current
	// contents; every later call blocks until the collection changes.
	Subscribe(ctx context.Context, userID string) (SnapshotStream[T], error)
}

// SnapshotStream yields full replacement snapshots until stopped.
type SnapshotStream[T any] interface {
	Next(ctx context.Context) ([]T, error)
	Stop()
}

// Identifier reads and assigns the document id carried by T.
type Identifier[T any] interface {
	ID(item T) string
	WithID(item T, id string) T
}

// Field names accepted by Update.
const (
	FieldQuantity = "quantity"
)
