package wishlist

import (
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/internal/reconcile"
	"github.com/angelmondragon/packfinderz-storefront/pkg/clock"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

const CollectionName = "wishlist"

// Policy keeps one entry per product with the newest saves on top.
type Policy struct {
	clock clock.Clock
}

var _ reconcile.Policy[Entry] = Policy{}

func NewPolicy(clk clock.Clock) Policy {
	if clk == nil {
		clk = clock.System()
	}
	return Policy{clock: clk}
}

func (Policy) Collection() string { return CollectionName }

func (Policy) ID(e Entry) string { return e.ID }

func (Policy) WithID(e Entry, id string) Entry {
	e.ID = id
	return e
}

func (Policy) ProductID(e Entry) string { return e.ProductID }

func (Policy) SameLine(a, b Entry) bool { return a.ProductID == b.ProductID }

func (p Policy) Prepare(e Entry) (Entry, error) {
	e.ProductID = strings.TrimSpace(e.ProductID)
	e.ID = e.ProductID
	e.Product = e.Product.Clone()
	if e.Product != nil && e.Product.ID == "" {
		e.Product.ID = e.ProductID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = p.clock.Now()
	}
	return e, nil
}

// Merge leaves an existing entry untouched; saving twice is a no-op.
func (Policy) Merge(existing, _ Entry) (Entry, bool, error) {
	return existing, false, nil
}

func (Policy) Quantity(Entry) (int, bool) { return 0, false }

func (Policy) WithQuantity(e Entry, _ int) (Entry, error) {
	return e, pkgerrors.New(pkgerrors.CodeValidation, "wishlist entries have no quantity")
}

func (Policy) Placement() reconcile.Placement { return reconcile.PlaceHead }

// Less puts the most recently saved entry first.
func (Policy) Less(a, b Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
