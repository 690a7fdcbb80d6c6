package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Engine computes cart totals. It holds no state beyond its configuration
// and is safe for concurrent use.
type Engine struct {
	threshold   decimal.Decimal
	taxRate     decimal.Decimal
	deliveryFee decimal.Decimal
}

// Summary is a priced cart. Amounts are in currency units rounded to cents.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	TotalItemCount int             `json:"total_item_count"`
}

// FreeShippingProgress tells the shopper how far they are from free
// shipping. Progress is in [0, 1].
type FreeShippingProgress struct {
	Remaining decimal.Decimal `json:"remaining"`
	Progress  float64         `json:"progress"`
	Qualifies bool            `json:"qualifies"`
}

func NewEngine(cfg config.PricingConfig) (*Engine, error) {
	if cfg.FreeShippingThresholdCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free shipping threshold must not be negative")
	}
	if cfg.TaxRate < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}
	if cfg.DeliveryFeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative")
	}
	return &Engine{
		threshold:   FromCents(cfg.FreeShippingThresholdCents),
		taxRate:     decimal.NewFromFloat(cfg.TaxRate),
		deliveryFee: FromCents(cfg.DeliveryFeeCents),
	}, nil
}

// DefaultDeliveryFee is the configured fee charged below the threshold.
func (e *Engine) DefaultDeliveryFee() decimal.Decimal {
	return e.deliveryFee
}

func (e *Engine) FreeShippingThreshold() decimal.Decimal {
	return e.threshold
}

// ComputeSummary prices lines. Each line contributes its discounted price,
// or base price when no discount is set, times its quantity; a line whose
// product snapshot is missing contributes nothing. Shipping is waived when
// applyFreeShippingThreshold is set and the subtotal reaches the threshold.
// Tax applies to the subtotal only.
func (e *Engine) ComputeSummary(lines []cart.LineItem, deliveryFee decimal.Decimal, applyFreeShippingThreshold bool) Summary {
	subtotalCents := int64(0)
	count := 0
	for _, line := range lines {
		subtotalCents += int64(line.UnitPriceCents()) * int64(line.Quantity)
		count += line.Quantity
	}
	subtotal := FromCents(subtotalCents)

	shipping := deliveryFee
	if applyFreeShippingThreshold && subtotal.GreaterThanOrEqual(e.threshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(e.taxRate).Round(2)

	return Summary{
		Subtotal:       subtotal,
		ShippingFee:    shipping,
		Tax:            tax,
		Total:          subtotal.Add(shipping).Add(tax),
		TotalItemCount: count,
	}
}

// FreeShippingProgress reports the amount left before shipping is waived.
// A zero threshold always qualifies.
func (e *Engine) FreeShippingProgress(subtotal decimal.Decimal) FreeShippingProgress {
	if !e.threshold.IsPositive() {
		return FreeShippingProgress{Remaining: decimal.Zero, Progress: 1, Qualifies: true}
	}
	remaining := decimal.Max(decimal.Zero, e.threshold.Sub(subtotal))
	ratio := decimal.Min(decimal.NewFromInt(1), decimal.Max(decimal.Zero, subtotal.Div(e.threshold)))
	progress, _ := ratio.Float64()
	return FreeShippingProgress{
		Remaining: remaining,
		Progress:  progress,
		Qualifies: remaining.IsZero(),
	}
}

// FromCents converts an integer cent amount to currency units.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// ToCents rounds d to the nearest cent.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}
