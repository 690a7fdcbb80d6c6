package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/reconcile"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/clock"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// Publisher delivers encoded events. Implementations must not block on the
// broker round trip.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string)
}

// Event is the payload published for every committed cart or wishlist change.
type Event struct {
	EventID        string                  `json:"event_id"`
	EventType      enums.CommerceEventType `json:"event_type"`
	UserID         string                  `json:"user_id"`
	ProductID      string                  `json:"product_id"`
	LineID         string                  `json:"line_id,omitempty"`
	Quantity       int                     `json:"quantity,omitempty"`
	UnitPriceCents int                     `json:"unit_price_cents,omitempty"`
	OccurredAt     time.Time               `json:"occurred_at"`
}

// Tracker turns committed store mutations into commerce events.
type Tracker struct {
	pub   Publisher
	clock clock.Clock
	logg  *logger.Logger
}

type TrackerParams struct {
	Publisher Publisher
	Clock     clock.Clock
	Logger    *logger.Logger
}

func NewTracker(params TrackerParams) (*Tracker, error) {
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if params.Clock == nil {
		params.Clock = clock.System()
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &Tracker{pub: params.Publisher, clock: params.Clock, logg: params.Logger}, nil
}

// CartHook reports added lines, removed lines and quantity changes.
func (t *Tracker) CartHook() reconcile.CommitHook[cart.LineItem] {
	return func(ctx context.Context, ev reconcile.CommitEvent[cart.LineItem]) {
		var eventType enums.CommerceEventType
		switch ev.Kind {
		case enums.MutationKindInsert:
			eventType = enums.CommerceEventCartItemAdded
		case enums.MutationKindUpdate:
			eventType = enums.CommerceEventCartQuantityChanged
		case enums.MutationKindRemove:
			eventType = enums.CommerceEventCartItemRemoved
		default:
			return
		}
		t.Track(ctx, Event{
			EventType:      eventType,
			UserID:         ev.UserID,
			ProductID:      ev.Item.ProductID,
			LineID:         ev.Item.ID,
			Quantity:       ev.Quantity,
			UnitPriceCents: ev.Item.UnitPriceCents(),
		})
	}
}

// WishlistHook reports saved and unsaved products.
func (t *Tracker) WishlistHook() reconcile.CommitHook[wishlist.Entry] {
	return func(ctx context.Context, ev reconcile.CommitEvent[wishlist.Entry]) {
		var eventType enums.CommerceEventType
		switch ev.Kind {
		case enums.MutationKindInsert:
			eventType = enums.CommerceEventWishlistItemAdded
		case enums.MutationKindRemove:
			eventType = enums.CommerceEventWishlistItemRemoved
		default:
			return
		}
		t.Track(ctx, Event{
			EventType: eventType,
			UserID:    ev.UserID,
			ProductID: ev.Item.ProductID,
		})
	}
}

// Track stamps and publishes event.
func (t *Tracker) Track(ctx context.Context, event Event) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = t.clock.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.logg.Error(t.logg.WithField(ctx, "event_type", event.EventType), "analytics.encode_failed", err)
		return
	}
	t.pub.Publish(ctx, data, map[string]string{
		"event_id":    event.EventID,
		"event_type":  string(event.EventType),
		"user_id":     event.UserID,
		"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
	})
}
