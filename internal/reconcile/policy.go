package reconcile

import "github.com/angelmondragon/packfinderz-storefront/internal/remote"

// Placement decides where a brand new item lands in the list.
type Placement int

const (
	PlaceTail Placement = iota
	PlaceHead
)

// Policy carries the per-collection rules a Store enforces.
type Policy[T any] interface {
	remote.Identifier[T]

	// Collection names the store in logs and metrics.
	Collection() string
	ProductID(item T) string
	// SameLine reports whether a and b describe the same logical entry
	// and must never coexist in the list.
	SameLine(a, b T) bool
	// Prepare validates and normalizes an item before it is inserted.
	// A non-empty id on the result is used as the document id.
	Prepare(item T) (T, error)
	// Merge folds an insert into the existing matching entry. changed is
	// false when the existing entry already satisfies the insert.
	Merge(existing, incoming T) (merged T, changed bool, err error)
	// Quantity returns the quantity carried by item; ok is false for
	// collections without quantities.
	Quantity(item T) (qty int, ok bool)
	// WithQuantity returns item at qty or the reason it cannot hold it.
	WithQuantity(item T, qty int) (T, error)
	Placement() Placement
	// Less orders fetched and snapshotted lists.
	Less(a, b T) bool
}
