package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/remote/memory"
	"github.com/angelmondragon/packfinderz-storefront/internal/reconcile"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/clock"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

type published struct {
	event Event
	attrs map[string]string
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
}

func (f *fakePublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) {
	var ev Event
	_ = json.Unmarshal(data, &ev)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{event: ev, attrs: attrs})
}

func (f *fakePublisher) eventTypes() []enums.CommerceEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]enums.CommerceEventType, len(f.messages))
	for i, m := range f.messages {
		out[i] = m.event.EventType
	}
	return out
}

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	tracker, err := NewTracker(TrackerParams{Publisher: pub, Clock: clock.NewFixed(testNow)})
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	return tracker, pub
}

func TestNewTrackerRequiresPublisher(t *testing.T) {
	if _, err := NewTracker(TrackerParams{}); err == nil {
		t.Fatalf("expected error without publisher")
	}
}

func TestCartHookMapsMutationKinds(t *testing.T) {
	tracker, pub := newTestTracker(t)
	hook := tracker.CartHook()
	item := cart.LineItem{ID: "line-1", ProductID: "p1", Product: &types.ProductSnapshot{ID: "p1", PriceCents: 1250}}

	hook(context.Background(), reconcile.CommitEvent[cart.LineItem]{Kind: enums.MutationKindInsert, UserID: "u1", Item: item, Quantity: 2})
	hook(context.Background(), reconcile.CommitEvent[cart.LineItem]{Kind: enums.MutationKindUpdate, UserID: "u1", Item: item, Quantity: 3})
	hook(context.Background(), reconcile.CommitEvent[cart.LineItem]{Kind: enums.MutationKindRemove, UserID: "u1", Item: item})
	hook(context.Background(), reconcile.CommitEvent[cart.LineItem]{Kind: enums.MutationKindClear, UserID: "u1", Item: item})

	got := pub.eventTypes()
	want := []enums.CommerceEventType{
		enums.CommerceEventCartItemAdded,
		enums.CommerceEventCartQuantityChanged,
		enums.CommerceEventCartItemRemoved,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}

	first := pub.messages[0]
	if first.event.Quantity != 2 || first.event.UnitPriceCents != 1250 || first.event.LineID != "line-1" {
		t.Fatalf("unexpected payload %+v", first.event)
	}
	if !first.event.OccurredAt.Equal(testNow) {
		t.Fatalf("expected clock timestamp, got %v", first.event.OccurredAt)
	}
	if first.attrs["event_type"] != string(enums.CommerceEventCartItemAdded) || first.attrs["event_id"] == "" {
		t.Fatalf("unexpected attributes %v", first.attrs)
	}
	if first.attrs["event_id"] != first.event.EventID {
		t.Fatalf("attribute event id should match payload")
	}
}

func TestWishlistHookIgnoresUpdates(t *testing.T) {
	tracker, pub := newTestTracker(t)
	hook := tracker.WishlistHook()
	entry := wishlist.Entry{ID: "p1", ProductID: "p1"}

	hook(context.Background(), reconcile.CommitEvent[wishlist.Entry]{Kind: enums.MutationKindInsert, UserID: "u1", Item: entry})
	hook(context.Background(), reconcile.CommitEvent[wishlist.Entry]{Kind: enums.MutationKindUpdate, UserID: "u1", Item: entry})
	hook(context.Background(), reconcile.CommitEvent[wishlist.Entry]{Kind: enums.MutationKindRemove, UserID: "u1", Item: entry})

	got := pub.eventTypes()
	if len(got) != 2 || got[0] != enums.CommerceEventWishlistItemAdded || got[1] != enums.CommerceEventWishlistItemRemoved {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestCartStorePublishesCommittedMutations(t *testing.T) {
	tracker, pub := newTestTracker(t)
	port := memory.New[cart.LineItem](cart.Policy{})
	store, err := cart.NewStore(cart.StoreParams{
		Port:  port,
		Clock: clock.NewFixed(testNow),
		Hooks: []reconcile.CommitHook[cart.LineItem]{tracker.CartHook()},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Load(ctx, "u1", false); err != nil {
		t.Fatalf("load: %v", err)
	}
	line, err := store.AddProduct(ctx, &types.ProductSnapshot{ID: "p1", PriceCents: 900}, 1, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.RemoveLine(ctx, line.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got := pub.eventTypes()
	if len(got) != 2 || got[0] != enums.CommerceEventCartItemAdded || got[1] != enums.CommerceEventCartItemRemoved {
		t.Fatalf("unexpected events %v", got)
	}
	if pub.messages[0].event.UserID != "u1" {
		t.Fatalf("expected user id on event")
	}
}
