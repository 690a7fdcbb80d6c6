package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// Catalog serves filtered listings and product snapshots.
type Catalog interface {
	ProductSnapshots
	Browse(ctx context.Context, q catalog.Query, fallbackCategoryID string) ([]catalog.Product, error)
}

type catalogListResponse struct {
	Products []catalog.Product `json:"products"`
	Count    int               `json:"count"`
	Sort     enums.CatalogSort `json:"sort"`
}

// CatalogProducts lists products filtered by category and price range in the
// requested order. Listings are flagged when the caller has them saved.
func CatalogProducts(svc Catalog, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "catalog unavailable"))
			return
		}

		query, fallback, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		products, err := svc.Browse(ctx, query, fallback)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if sessions != nil {
			if sess, ok := sessions.Lookup(middleware.UserIDFromContext(ctx)); ok {
				products = catalog.MarkWishlisted(products, sess.Wishlist)
			}
		}
		if products == nil {
			products = []catalog.Product{}
		}

		responses.WriteSuccess(w, catalogListResponse{
			Products: products,
			Count:    len(products),
			Sort:     query.Sort,
		})
	}
}

func parseCatalogQuery(r *http.Request) (catalog.Query, string, error) {
	values := r.URL.Query()

	sortMode, err := enums.ParseCatalogSort(strings.TrimSpace(values.Get("sort")))
	if err != nil {
		return catalog.Query{}, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
			WithDetails(map[string]any{"field": "sort"})
	}
	minPrice, err := validators.ParseOptionalQueryInt(r, "min_price_cents", 0)
	if err != nil {
		return catalog.Query{}, "", err
	}
	maxPrice, err := validators.ParseOptionalQueryInt(r, "max_price_cents", 0)
	if err != nil {
		return catalog.Query{}, "", err
	}

	return catalog.Query{
		CategoryID:    validators.SanitizeString(values.Get("category"), 128),
		MinPriceCents: minPrice,
		MaxPriceCents: maxPrice,
		Sort:          sortMode,
	}, validators.SanitizeString(values.Get("fallback_category"), 128), nil
}
