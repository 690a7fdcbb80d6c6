package catalog

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

type productReader interface {
	ListActive(ctx context.Context, categoryID string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

// Membership answers whether a product is saved, typically a wishlist store.
type Membership interface {
	IsMember(productID string) bool
}

// Service serves browse listings and product snapshots.
type Service struct {
	repo productReader
}

func NewService(repo productReader) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository required")
	}
	return &Service{repo: repo}, nil
}

// Browse loads active listings for the effective category and applies the
// price filters and sort of q.
func (s *Service) Browse(ctx context.Context, q Query, fallbackCategoryID string) ([]Product, error) {
	if q.MinPriceCents != nil && q.MaxPriceCents != nil && *q.MinPriceCents > *q.MaxPriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min price must not exceed max price").
			WithDetails(map[string]any{"min_price_cents": *q.MinPriceCents, "max_price_cents": *q.MaxPriceCents})
	}
	rows, err := s.repo.ListActive(ctx, q.EffectiveCategory(fallbackCategoryID))
	if err != nil {
		return nil, err
	}
	products := make([]Product, len(rows))
	for i, row := range rows {
		products[i] = toProduct(row)
	}
	return ApplyFilters(products, q, fallbackCategoryID), nil
}

// Snapshot returns the denormalized copy of a listing stored on cart lines
// and wishlist entries.
func (s *Service) Snapshot(ctx context.Context, productID string) (*types.ProductSnapshot, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toProduct(*row).Snapshot(), nil
}

// MarkWishlisted returns a copy of products with Wishlisted set from
// membership.
func MarkWishlisted(products []Product, membership Membership) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	if membership == nil {
		return out
	}
	for i := range out {
		out[i].Wishlisted = membership.IsMember(out[i].ID)
	}
	return out
}
