package wishlist

import (
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

// Entry is one saved product. Its document id is the product id, which makes
// saving the same product twice an idempotent write.
type Entry struct {
	ID        string                 `json:"id,omitempty" firestore:"-"`
	ProductID string                 `json:"product_id" firestore:"productId"`
	Product   *types.ProductSnapshot `json:"product,omitempty" firestore:"product,omitempty"`
	CreatedAt time.Time              `json:"created_at" firestore:"createdAt"`
}
