package cart

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

// StoreParams groups dependencies for a cart store.
type StoreParams struct {
	Port    remote.Collection[LineItem]
	Clock   clock.Clock
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	Hooks   []reconcile.CommitHook[LineItem]
}

// Store is the reconciling store specialised for cart lines.
type Store struct {
	*reconcile.Store[LineItem]
}

func NewStore(params StoreParams) (*Store, error) {
	inner, err := reconcile.NewStore(reconcile.StoreParams[LineItem]{
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

// AddProduct puts quantity units of product in the cart. Adding a product
// and variant selection already in the cart raises that line's quantity.
func (s *Store) AddProduct(ctx context.Context, product *types.ProductSnapshot, quantity int, variants types.VariantSelection) (LineItem, error) {
	if product == nil || product.ID == "" {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	return s.Insert(ctx, LineItem{
		ProductID: product.ID,
		Product:   product,
		Quantity:  quantity,
		Variants:  variants,
	})
}

// SetQuantity changes the quantity of the line with the given id.
func (s *Store) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	line, ok := s.Find(lineID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeItemNotFound, "item is not in your cart").
			WithDetails(map[string]any{"id": lineID})
	}
	return s.UpdateQuantity(ctx, line, quantity)
}

// RemoveLine deletes the line with the given id.
func (s *Store) RemoveLine(ctx context.Context, lineID string) error {
	line, ok := s.Find(lineID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeItemNotFound, "item is not in your cart").
			WithDetails(map[string]any{"id": lineID})
	}
	return s.Remove(ctx, line)
}

// ItemCount is the sum of quantities across lines.
func (s *Store) ItemCount() int {
	total := 0
	for _, line := range s.Items() {
		total += line.Quantity
	}
	return total
}
