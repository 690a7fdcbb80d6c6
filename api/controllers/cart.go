package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/api/validators"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

// ProductSnapshots resolves a product id to the copy stored on list items.
type ProductSnapshots interface {
	Snapshot(ctx context.Context, productID string) (*types.ProductSnapshot, error)
}

type addCartItemPayload struct {
	ProductID string                 `json:"product_id" validate:"required,max=128"`
	Quantity  int                    `json:"quantity" validate:"required,min=1,max=999"`
	Variants  types.VariantSelection `json:"variants" validate:"omitempty,max=8,dive,keys,min=1,max=32,endkeys,max=64"`
}

type updateCartItemPayload struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=999"`
}

// CartFetch returns the caller's cart.
func CartFetch(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := callerSession(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Cart))
	}
}

// CartAddItem adds a product to the cart, raising the quantity of an
// existing line for the same product and variants.
func CartAddItem(sessions Sessions, products ProductSnapshots, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if products == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "catalog unavailable"))
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := callerSession(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		snapshot, err := products.Snapshot(ctx, strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		line, err := sess.Cart.AddProduct(ctx, snapshot, payload.Quantity, payload.Variants)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

// CartUpdateItem sets the quantity of one line.
func CartUpdateItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lineID := strings.TrimSpace(chi.URLParam(r, "lineId"))
		if lineID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}

		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := callerSession(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := sess.Cart.SetQuantity(ctx, lineID, payload.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(sess.Cart))
	}
}

// CartRemoveItem deletes one line.
func CartRemoveItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lineID := strings.TrimSpace(chi.URLParam(r, "lineId"))
		if lineID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}

		sess, err := callerSession(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := sess.Cart.RemoveLine(ctx, lineID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(sess.Cart))
	}
}

// CartClear empties the cart. Lines that fail to delete stay in the cart and
// the combined failure is returned.
func CartClear(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := callerSession(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := sess.Cart.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(sess.Cart))
	}
}

type freeShippingResponse struct {
	Remaining string  `json:"remaining"`
	Progress  float64 `json:"progress"`
	Qualifies bool    `json:"qualifies"`
}

type cartSummaryResponse struct {
	Subtotal       string               `json:"subtotal"`
	ShippingFee    string               `json:"shipping_fee"`
	Tax            string               `json:"tax"`
	Total          string               `json:"total"`
	TotalItemCount int                  `json:"total_item_count"`
	FreeShipping   freeShippingResponse `json:"free_shipping"`
}

// CartSummary prices the caller's cart. delivery_fee_cents overrides the
// configured fee and free_shipping=false disables the threshold waiver.
func CartSummary(sessions Sessions, engine *pricing.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}

		feeCents, err := validators.ParseOptionalQueryInt(r, "delivery_fee_cents", 0)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		applyThreshold, err := validators.ParseQueryBool(r, "free_shipping", true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sess, err := callerSession(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		fee := engine.DefaultDeliveryFee()
		if feeCents != nil {
			fee = pricing.FromCents(int64(*feeCents))
		}

		responses.WriteSuccess(w, summarize(engine, sess.Cart.Items(), fee, applyThreshold))
	}
}

func summarize(engine *pricing.Engine, lines []cart.LineItem, fee decimal.Decimal, applyThreshold bool) cartSummaryResponse {
	summary := engine.ComputeSummary(lines, fee, applyThreshold)
	progress := engine.FreeShippingProgress(summary.Subtotal)
	return cartSummaryResponse{
		Subtotal:       summary.Subtotal.StringFixed(2),
		ShippingFee:    summary.ShippingFee.StringFixed(2),
		Tax:            summary.Tax.StringFixed(2),
		Total:          summary.Total.StringFixed(2),
		TotalItemCount: summary.TotalItemCount,
		FreeShipping: freeShippingResponse{
			Remaining: progress.Remaining.StringFixed(2),
			Progress:  progress.Progress,
			Qualifies: progress.Qualifies,
		},
	}
}
