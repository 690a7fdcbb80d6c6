package cart

import (
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

// LineItem is one cart row. ID is empty until the backend assigns it.
type LineItem struct {
	ID        string                 `json:"id,omitempty" firestore:"-"`
	ProductID string                 `json:"product_id" firestore:"productId"`
	Product   *types.ProductSnapshot `json:"product,omitempty" firestore:"product,omitempty"`
	Quantity  int                    `json:"quantity" firestore:"quantity"`
	Variants  types.VariantSelection `json:"variants,omitempty" firestore:"variants,omitempty"`
	CreatedAt time.Time              `json:"created_at" firestore:"createdAt"`
}

// StockLimit returns the known stock ceiling for the line's product.
func (l LineItem) StockLimit() (int, bool) {
	if l.Product == nil || l.Product.Stock == nil {
		return 0, false
	}
	return *l.Product.Stock, true
}

// UnitPriceCents is the effective unit price; unresolved products are free.
func (l LineItem) UnitPriceCents() int {
	return l.Product.EffectivePriceCents()
}

func (l LineItem) clone() LineItem {
	l.Product = l.Product.Clone()
	l.Variants = l.Variants.Clone()
	return l
}
