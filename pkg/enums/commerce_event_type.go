package enums

import "fmt"

// CommerceEventType is the event_type published for committed cart and
// wishlist mutations.
type CommerceEventType string

const (
	CommerceEventCartItemAdded       CommerceEventType = "cart.item_added"
	CommerceEventCartItemRemoved     CommerceEventType = "cart.item_removed"
	CommerceEventCartQuantityChanged CommerceEventType = "cart.quantity_changed"
	CommerceEventWishlistItemAdded   CommerceEventType = "wishlist.item_added"
	CommerceEventWishlistItemRemoved CommerceEventType = "wishlist.item_removed"
)

var validCommerceEventTypes = []CommerceEventType{
	CommerceEventCartItemAdded,
	CommerceEventCartItemRemoved,
	CommerceEventCartQuantityChanged,
	CommerceEventWishlistItemAdded,
	CommerceEventWishlistItemRemoved,
}

// IsValid reports whether the value matches a known commerce event type.
func (c CommerceEventType) IsValid() bool {
	for _, candidate := range validCommerceEventTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommerceEventType converts the raw string to CommerceEventType.
func ParseCommerceEventType(value string) (CommerceEventType, error) {
	for _, candidate := range validCommerceEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commerce event type %q", value)
}
