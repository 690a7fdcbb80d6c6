package catalog

import (
	"sort"
	"time"

	"golang.org/x/text/cases"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

// Product is the browse projection of a catalog listing.
type Product struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	CategoryID           string     `json:"category_id"`
	PriceCents           int        `json:"price_cents"`
	DiscountedPriceCents *int       `json:"discounted_price_cents,omitempty"`
	Stock                *int       `json:"stock,omitempty"`
	Rating               float64    `json:"rating"`
	ReviewCount          int        `json:"review_count"`
	ImageURL             string     `json:"image_url,omitempty"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
	Wishlisted           bool       `json:"wishlisted"`
}

// DisplayPriceCents is the price shown to shoppers: the discounted price
// when present, otherwise the base price.
func (p Product) DisplayPriceCents() int {
	if p.DiscountedPriceCents != nil {
		return *p.DiscountedPriceCents
	}
	return p.PriceCents
}

// Snapshot copies the fields cart lines and wishlist entries carry.
func (p Product) Snapshot() *types.ProductSnapshot {
	snap := &types.ProductSnapshot{
		ID:                   p.ID,
		Title:                p.Title,
		PriceCents:           p.PriceCents,
		DiscountedPriceCents: p.DiscountedPriceCents,
		Stock:                p.Stock,
		CategoryID:           p.CategoryID,
		ImageURL:             p.ImageURL,
	}
	return snap.Clone()
}

// Query narrows and orders a listing. Nil price bounds are open.
type Query struct {
	CategoryID    string
	MinPriceCents *int
	MaxPriceCents *int
	Sort          enums.CatalogSort
}

// EffectiveCategory returns the query category, the fallback when the query
// has none, or "" for no category filter.
func (q Query) EffectiveCategory(fallbackCategoryID string) string {
	if q.CategoryID != "" {
		return q.CategoryID
	}
	return fallbackCategoryID
}

// ApplyFilters returns the products matching q in the requested order. The
// input slice is never modified and equal elements keep their input order.
func ApplyFilters(products []Product, q Query, fallbackCategoryID string) []Product {
	category := q.EffectiveCategory(fallbackCategoryID)

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" && p.CategoryID != category {
			continue
		}
		price := p.DisplayPriceCents()
		if q.MinPriceCents != nil && price < *q.MinPriceCents {
			continue
		}
		if q.MaxPriceCents != nil && price > *q.MaxPriceCents {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, q.Sort)
	return out
}

func sortProducts(products []Product, mode enums.CatalogSort) {
	switch mode {
	case enums.CatalogSortName:
		fold := cases.Fold()
		sort.SliceStable(products, func(i, j int) bool {
			return fold.String(products[i].Title) < fold.String(products[j].Title)
		})
	case enums.CatalogSortRating:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	case enums.CatalogSortNewest:
		sort.SliceStable(products, func(i, j int) bool {
			return newer(products[i].CreatedAt, products[j].CreatedAt)
		})
	case enums.CatalogSortLowestPrice:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].DisplayPriceCents() < products[j].DisplayPriceCents()
		})
	case enums.CatalogSortHighestPrice:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].DisplayPriceCents() > products[j].DisplayPriceCents()
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			if products[i].Rating != products[j].Rating {
				return products[i].Rating > products[j].Rating
			}
			return products[i].ReviewCount > products[j].ReviewCount
		})
	}
}

// newer orders by creation time descending; a missing time sorts as oldest.
func newer(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
