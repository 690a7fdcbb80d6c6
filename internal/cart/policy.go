package cart

import (
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/internal/reconcile"
	"github.com/angelmondragon/packfinderz-storefront/pkg/clock"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// CollectionName is the per-user document collection holding cart lines.
const CollectionName = "cart"

// Policy holds the cart rules: one line per product and variant selection,
// positive quantities capped by known stock, oldest lines first.
type Policy struct {
	clock clock.Clock
}

var _ reconcile.Policy[LineItem] = Policy{}

func NewPolicy(clk clock.Clock) Policy {
	if clk == nil {
		clk = clock.System()
	}
	return Policy{clock: clk}
}

func (Policy) Collection() string { return CollectionName }

func (Policy) ID(item LineItem) string { return item.ID }

func (Policy) WithID(item LineItem, id string) LineItem {
	item.ID = id
	return item
}

func (Policy) ProductID(item LineItem) string { return item.ProductID }

func (Policy) SameLine(a, b LineItem) bool {
	return a.ProductID == b.ProductID && a.Variants.Equal(b.Variants)
}

func (p Policy) Prepare(item LineItem) (LineItem, error) {
	item = item.clone()
	item.ID = ""
	item.ProductID = strings.TrimSpace(item.ProductID)
	if item.Product != nil && item.Product.ID == "" {
		item.Product.ID = item.ProductID
	}
	if item.Quantity < 0 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": item.Quantity})
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = p.clock.Now()
	}
	return p.WithQuantity(item, item.Quantity)
}

// Merge adds the incoming quantity to the existing line. The stock ceiling
// of the existing line's snapshot applies to the sum.
func (p Policy) Merge(existing, incoming LineItem) (LineItem, bool, error) {
	merged, err := p.WithQuantity(existing, existing.Quantity+incoming.Quantity)
	if err != nil {
		return existing, false, err
	}
	return merged, true, nil
}

func (Policy) Quantity(item LineItem) (int, bool) {
	return item.Quantity, true
}

func (Policy) WithQuantity(item LineItem, qty int) (LineItem, error) {
	if qty <= 0 {
		return item, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": qty})
	}
	if stock, ok := item.StockLimit(); ok && qty > stock {
		return item, pkgerrors.New(pkgerrors.CodeStockExceeded, "not enough stock").
			WithDetails(map[string]any{
				"product_id": item.ProductID,
				"requested":  qty,
				"available":  stock,
			})
	}
	item.Quantity = qty
	return item, nil
}

func (Policy) Placement() reconcile.Placement { return reconcile.PlaceTail }

// Less orders lines by creation time, oldest first, with the id as a tie
// breaker so snapshots sort deterministically.
func (Policy) Less(a, b LineItem) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
