package wishlist

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/reconcile"
	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	"github.com/angelmondragon/packfinderz-storefront/pkg/clock"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

// StoreParams groups dependencies for a wishlist store.
type StoreParams struct {
	Port    remote.Collection[Entry]
	Clock   clock.Clock
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	Hooks   []reconcile.CommitHook[Entry]
}

// Store is the reconciling store specialised for wishlist entries.
type Store struct {
	*reconcile.Store[Entry]
}

func NewStore(params StoreParams) (*Store, error) {
	inner, err := reconcile.NewStore(reconcile.StoreParams[Entry]{
		Policy:  NewPolicy(params.Clock),
		Port:    params.Port,
		Logger:  params.Logger,
		Metrics: params.Metrics,
		Hooks:   params.Hooks,
	})
	if err != nil {
		return nil, err
	}
	return &Store{Store: inner}, nil
}

// Save adds product to the wishlist. Saving a product that is already there
// returns the existing entry.
func (s *Store) Save(ctx context.Context, product *types.ProductSnapshot) (Entry, error) {
	if product == nil || product.ID == "" {
		return Entry{}, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	return s.Insert(ctx, Entry{ProductID: product.ID, Product: product})
}

// Unsave removes productID from the wishlist.
func (s *Store) Unsave(ctx context.Context, productID string) error {
	return s.Remove(ctx, Entry{ID: productID, ProductID: productID})
}

// Toggle saves product when absent and removes it when present. It reports
// whether the product is saved afterwards.
func (s *Store) Toggle(ctx context.Context, product *types.ProductSnapshot) (bool, error) {
	if product == nil || product.ID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if s.IsMember(product.ID) {
		if err := s.Unsave(ctx, product.ID); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := s.Save(ctx, product); err != nil {
		return false, err
	}
	return true, nil
}

// ProductIDs lists saved product ids, newest first.
func (s *Store) ProductIDs() []string {
	entries := s.Items()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ProductID
	}
	return out
}
