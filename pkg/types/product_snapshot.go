package types

// ProductSnapshot is the denormalized product data copied onto cart lines and
// wishlist entries so they render without a catalog lookup.
type ProductSnapshot struct {
	ID                   string `json:"id" firestore:"id"`
	Title                string `json:"title" firestore:"title"`
	PriceCents           int    `json:"price_cents" firestore:"priceCents"`
	DiscountedPriceCents *int   `json:"discounted_price_cents,omitempty" firestore:"discountedPriceCents,omitempty"`
	// Stock is nil when the listing does not track inventory.
	Stock      *int   `json:"stock,omitempty" firestore:"stock,omitempty"`
	CategoryID string `json:"category_id,omitempty" firestore:"categoryId,omitempty"`
	ImageURL   string `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
}

// EffectivePriceCents is the discounted price when one is set, otherwise the
// base price. A nil snapshot is worth zero.
func (p *ProductSnapshot) EffectivePriceCents() int {
	if p == nil {
		return 0
	}
	if p.DiscountedPriceCents != nil {
		return *p.DiscountedPriceCents
	}
	return p.PriceCents
}

// Clone returns a deep copy so callers never share pointer fields.
func (p *ProductSnapshot) Clone() *ProductSnapshot {
	if p == nil {
		return nil
	}
	out := *p
	if p.DiscountedPriceCents != nil {
		v := *p.DiscountedPriceCents
		out.DiscountedPriceCents = &v
	}
	if p.Stock != nil {
		v := *p.Stock
		out.Stock = &v
	}
	return &out
}
