package reconcile

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/internal/remote/memory"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

type itemIdentifier struct{}

func (itemIdentifier) ID(item testItem) string { return item.ID }

func (itemIdentifier) WithID(item testItem, id string) testItem {
	item.ID = id
	return item
}

func loadedStore(t *testing.T, policy testPolicy, port *fakePort, userID string) *Store[testItem] {
	t.Helper()
	store := newTestStore(t, policy, port)
	if err := store.Load(context.Background(), userID, false); err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.State() != enums.StoreStateLive {
		t.Fatalf("expected live store, got %s", store.State())
	}
	return store
}

func TestInsertSameProductTwiceMergesQuantity(t *testing.T) {
	t.Parallel()

	port := memory.New[testItem](itemIdentifier{})
	store := newTestStore(t, testPolicy{}, port)
	ctx := context.Background()
	if err := store.Load(ctx, "user-1", false); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Insert(ctx, testItem{ProductID: "p1", Qty: 1}); err != nil {
				t.Errorf("insert: %v", err)
			}
		}()
	}
	wg.Wait()

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected single line, got %+v", items)
	}
	if items[0].Qty != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Qty)
	}
	if IsPlaceholderID(items[0].ID) {
		t.Fatalf("expected backend id, got %s", items[0].ID)
	}

	remoteItems, err := port.FetchAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(remoteItems) != 1 || remoteItems[0].Qty != 2 {
		t.Fatalf("expected one remote document with quantity 2, got %+v", remoteItems)
	}
}

func TestInsertDifferentVariantsStaySeparate(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	store := loadedStore(t, testPolicy{}, port, "user-1")
	ctx := context.Background()

	if _, err := store.Insert(ctx, testItem{ProductID: "p1", Variant: "size=S"}); err != nil {
		t.Fatalf("insert S: %v", err)
	}
	if _, err := store.Insert(ctx, testItem{ProductID: "p1", Variant: "size=M"}); err != nil {
		t.Fatalf("insert M: %v", err)
	}
	if got := len(store.Items()); got != 2 {
		t.Fatalf("expected two lines, got %d", got)
	}
}

func TestInsertRollbackRestoresExactList(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1",
		testItem{ID: "a", ProductID: "pa", Qty: 1, Rank: 1},
		testItem{ID: "b", ProductID: "pb", Qty: 2, Rank: 2},
		testItem{ID: "c", ProductID: "pc", Qty: 3, Rank: 3},
	)
	store := loadedStore(t, testPolicy{}, port, "user-1")
	before := store.Items()

	port.addErr = errors.New("backend unavailable")
	_, err := store.Insert(context.Background(), testItem{ProductID: "pd", Qty: 1})
	if !pkgerrors.Is(err, pkgerrors.CodeRemoteWriteFailed) {
		t.Fatalf("expected remote write failure, got %v", err)
	}

	if after := store.Items(); !reflect.DeepEqual(before, after) {
		t.Fatalf("list not restored\nbefore=%+v\nafter=%+v", before, after)
	}
	if !pkgerrors.Is(store.LastError(), pkgerrors.CodeRemoteWriteFailed) {
		t.Fatalf("expected recorded error, got %v", store.LastError())
	}
}

func TestMergeRollbackRestoresQuantity(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1",
		testItem{ID: "a", ProductID: "pa", Qty: 1, Rank: 1},
		testItem{ID: "b", ProductID: "pb", Qty: 2, Rank: 2},
	)
	store := loadedStore(t, testPolicy{}, port, "user-1")
	before := store.Items()

	port.updateErr = errors.New("timeout")
	if _, err := store.Insert(context.Background(), testItem{ProductID: "pb", Qty: 1}); err == nil {
		t.Fatalf("expected merge failure")
	}
	if after := store.Items(); !reflect.DeepEqual(before, after) {
		t.Fatalf("quantity not restored: %+v", after)
	}
}

func TestRemoveRollbackReinsertsAtOriginalIndex(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1",
		testItem{ID: "a", ProductID: "pa", Qty: 1, Rank: 1},
		testItem{ID: "b", ProductID: "pb", Qty: 1, Rank: 2},
		testItem{ID: "c", ProductID: "pc", Qty: 1, Rank: 3},
	)
	store := loadedStore(t, testPolicy{}, port, "user-1")
	before := store.Items()

	port.deleteErr["b"] = errors.New("permission denied")
	if err := store.Remove(context.Background(), testItem{ID: "b"}); !pkgerrors.Is(err, pkgerrors.CodeRemoteWriteFailed) {
		t.Fatalf("expected remote write failure, got %v", err)
	}
	if after := store.Items(); !reflect.DeepEqual(before, after) {
		t.Fatalf("expected %v got %v", ids(before), ids(after))
	}
}

func TestRemoveUnknownItem(t *testing.T) {
	t.Parallel()

	store := loadedStore(t, testPolicy{}, newFakePort(), "user-1")
	err := store.Remove(context.Background(), testItem{ID: "ghost", ProductID: "ghost"})
	if !pkgerrors.Is(err, pkgerrors.CodeItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
}

func TestRemoveSucceeds(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	store := loadedStore(t, testPolicy{}, port, "user-1")

	if err := store.Remove(context.Background(), testItem{ID: "a"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if store.IsMember("pa") {
		t.Fatalf("expected pa removed")
	}
}

func TestWishlistInsertIsIdempotent(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "old", ProductID: "old", Rank: 5})
	store := loadedStore(t, testPolicy{natural: true}, port, "user-1")
	ctx := context.Background()

	first, err := store.Insert(ctx, testItem{ProductID: "p1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID != "p1" {
		t.Fatalf("expected entry id to equal product id, got %s", first.ID)
	}
	if _, err := store.Insert(ctx, testItem{ProductID: "p1"}); err != nil {
		t.Fatalf("second insert: %v", err)
	}

	items := store.Items()
	if got := ids(items); !reflect.DeepEqual(got, []string{"p1", "old"}) {
		t.Fatalf("expected new entry at head once, got %v", got)
	}
	if _, add, _, _ := port.calls(); add != 1 {
		t.Fatalf("expected a single remote add, got %d", add)
	}
}

func TestMutationsRequireIdentityAndLoadedState(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, testPolicy{}, newFakePort())
	ctx := context.Background()

	_, err := store.Insert(ctx, testItem{ProductID: "p1"})
	if !pkgerrors.Is(err, pkgerrors.CodeNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}

	store.Reset("user-1")
	_, err = store.Insert(ctx, testItem{ProductID: "p1"})
	if !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict while empty, got %v", err)
	}

	if err := store.Load(ctx, "", false); !pkgerrors.Is(err, pkgerrors.CodeNotAuthenticated) {
		t.Fatalf("expected load without identity to fail, got %v", err)
	}
}

func TestInsertRequiresProductID(t *testing.T) {
	t.Parallel()

	store := loadedStore(t, testPolicy{}, newFakePort(), "user-1")
	_, err := store.Insert(context.Background(), testItem{})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInsertBeyondStockIsRejected(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 2, Stock: 2})
	store := loadedStore(t, testPolicy{}, port, "user-1")

	_, err := store.Insert(context.Background(), testItem{ProductID: "pa", Qty: 1, Stock: 2})
	if !pkgerrors.Is(err, pkgerrors.CodeStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
	if items := store.Items(); items[0].Qty != 2 {
		t.Fatalf("quantity changed on rejected insert: %d", items[0].Qty)
	}
	if _, _, update, _ := port.calls(); update != 0 {
		t.Fatalf("rejected insert reached the backend")
	}
}

func TestUpdateQuantityWaitsForSnapshotWhenLive(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	store := loadedStore(t, testPolicy{}, port, "user-1")
	ctx := context.Background()

	if err := store.UpdateQuantity(ctx, testItem{ID: "a"}, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := store.Items()[0].Qty; got != 1 {
		t.Fatalf("list should not change before a snapshot, got %d", got)
	}

	port.stream(t, 0).emit(t, testItem{ID: "a", ProductID: "pa", Qty: 4})
	waitFor(t, func() bool { return store.Items()[0].Qty == 4 })
}

func TestUpdateQuantityAfterMergeIsNotUndoneBySnapshot(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	store, reg := newMeteredStore(t, testPolicy{}, port)
	ctx := context.Background()
	if err := store.Load(ctx, "user-1", false); err != nil {
		t.Fatalf("load: %v", err)
	}

	merged, err := store.Insert(ctx, testItem{ProductID: "pa", Qty: 1})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if merged.Qty != 2 {
		t.Fatalf("expected merged quantity 2, got %d", merged.Qty)
	}
	if err := store.UpdateQuantity(ctx, testItem{ID: "a"}, 5); err != nil {
		t.Fatalf("update: %v", err)
	}

	// One snapshot carries both writes.
	port.stream(t, 0).emit(t, testItem{ID: "a", ProductID: "pa", Qty: 5})
	waitFor(t, func() bool { return snapshotCount(t, reg, metrics.OutcomeApplied) == 1 })

	if got := store.Items()[0].Qty; got != 5 {
		t.Fatalf("expected snapshot quantity 5, got %d", got)
	}
	store.mu.Lock()
	remaining := store.pending.len()
	store.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected pending set to settle, got %d", remaining)
	}
}

func TestUpdateQuantityAppliesLocallyWithoutSubscription(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	port.subErr = errors.New("listen failed")
	store := newTestStore(t, testPolicy{}, port)
	ctx := context.Background()
	if err := store.Load(ctx, "user-1", false); err != nil {
		t.Fatalf("load: %v", err)
	}
	waitFor(t, func() bool { return store.LastError() != nil })
	if !pkgerrors.Is(store.LastError(), pkgerrors.CodeRemoteFetchFailed) {
		t.Fatalf("expected feed failure recorded, got %v", store.LastError())
	}
	store.ClearError()

	if err := store.UpdateQuantity(ctx, testItem{ID: "a"}, 3); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := store.Items()[0].Qty; got != 3 {
		t.Fatalf("expected local quantity 3, got %d", got)
	}
}

func TestUpdateQuantityValidation(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1",
		testItem{ID: "a", ProductID: "pa", Qty: 1, Stock: 5},
	)
	store := loadedStore(t, testPolicy{}, port, "user-1")
	ctx := context.Background()

	if err := store.UpdateQuantity(ctx, testItem{ID: "a"}, 0); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if err := store.UpdateQuantity(ctx, testItem{ID: "a"}, 6); !pkgerrors.Is(err, pkgerrors.CodeStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
	if err := store.UpdateQuantity(ctx, testItem{ID: "zz", ProductID: "zz"}, 1); !pkgerrors.Is(err, pkgerrors.CodeItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
	if _, _, update, _ := port.calls(); update != 0 {
		t.Fatalf("invalid updates reached the backend")
	}
}

func TestUpdateQuantityFailureLeavesListUntouched(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	store := loadedStore(t, testPolicy{}, port, "user-1")
	port.updateErr = errors.New("unavailable")

	if err := store.UpdateQuantity(context.Background(), testItem{ID: "a"}, 2); !pkgerrors.Is(err, pkgerrors.CodeRemoteWriteFailed) {
		t.Fatalf("expected remote write failure, got %v", err)
	}
	if got := store.Items()[0].Qty; got != 1 {
		t.Fatalf("expected quantity 1, got %d", got)
	}
}

func TestWishlistRejectsQuantityUpdates(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "p1", ProductID: "p1"})
	store := loadedStore(t, testPolicy{natural: true}, port, "user-1")

	if err := store.UpdateQuantity(context.Background(), testItem{ID: "p1"}, 2); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClearIsBestEffort(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1",
		testItem{ID: "a", ProductID: "pa", Qty: 1, Rank: 1},
		testItem{ID: "b", ProductID: "pb", Qty: 1, Rank: 2},
		testItem{ID: "c", ProductID: "pc", Qty: 1, Rank: 3},
	)
	store := loadedStore(t, testPolicy{}, port, "user-1")
	port.deleteErr["b"] = errors.New("conflict")

	err := store.Clear(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeRemoteWriteFailed {
		t.Fatalf("expected aggregated write failure, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["failed"] != 1 || details["attempted"] != 3 {
		t.Fatalf("unexpected details %v", typed.Details())
	}
	if got := ids(store.Items()); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("expected only b to remain, got %v", got)
	}
}

func TestLoadIsNoOpWhileLive(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	store := loadedStore(t, testPolicy{}, port, "user-1")
	port.stream(t, 0)

	if err := store.Load(context.Background(), "user-1", false); err != nil {
		t.Fatalf("second load: %v", err)
	}
	fetch, _, _, sub := port.calls()
	if fetch != 1 || sub != 1 {
		t.Fatalf("expected one fetch and one subscription, got fetch=%d sub=%d", fetch, sub)
	}

	if err := store.Load(context.Background(), "user-1", true); err != nil {
		t.Fatalf("forced load: %v", err)
	}
	fetch, _, _, sub = port.calls()
	if fetch != 2 || sub != 1 {
		t.Fatalf("forced refresh should refetch without resubscribing, got fetch=%d sub=%d", fetch, sub)
	}
}

func TestNewerLoadSupersedesInFlightLoad(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	port.fetchGate = make(chan struct{})
	store := newTestStore(t, testPolicy{}, port)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() { firstDone <- store.Load(ctx, "user-1", false) }()
	waitFor(t, func() bool { return store.IsLoading() })

	if err := store.Load(ctx, "user-1", false); err != nil {
		t.Fatalf("non-forced load during fetch: %v", err)
	}
	if fetch, _, _, _ := port.calls(); fetch != 1 {
		t.Fatalf("non-forced load should not refetch, got %d fetches", fetch)
	}

	secondDone := make(chan error, 1)
	go func() { secondDone <- store.Load(ctx, "user-1", true) }()

	if err := <-firstDone; err != nil {
		t.Fatalf("superseded load should be silent, got %v", err)
	}
	waitFor(t, func() bool {
		fetch, _, _, _ := port.calls()
		return fetch == 2
	})
	close(port.fetchGate)
	if err := <-secondDone; err != nil {
		t.Fatalf("second load: %v", err)
	}

	if store.LastError() != nil {
		t.Fatalf("cancellation must not be recorded, got %v", store.LastError())
	}
	if got := ids(store.Items()); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("unexpected items %v", got)
	}
	port.stream(t, 0)
	if _, _, _, sub := port.calls(); sub != 1 {
		t.Fatalf("expected one subscription, got %d", sub)
	}
}

func TestLoadFailureKeepsPriorList(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	store := loadedStore(t, testPolicy{}, port, "user-1")

	port.mu.Lock()
	port.fetchErr = errors.New("offline")
	port.mu.Unlock()

	err := store.Load(context.Background(), "user-1", true)
	if !pkgerrors.Is(err, pkgerrors.CodeRemoteFetchFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	if got := ids(store.Items()); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected stale list kept, got %v", got)
	}
	if store.State() != enums.StoreStateLive {
		t.Fatalf("expected store to stay live, got %s", store.State())
	}
}

func TestFirstLoadFailureReturnsToEmpty(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.fetchErr = errors.New("offline")
	store := newTestStore(t, testPolicy{}, port)

	if err := store.Load(context.Background(), "user-1", false); err == nil {
		t.Fatalf("expected load error")
	}
	if store.State() != enums.StoreStateEmpty {
		t.Fatalf("expected empty state, got %s", store.State())
	}
	if store.UserID() != "user-1" {
		t.Fatalf("identity should survive a failed load")
	}
}

func TestCancelledLoadIsSilent(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.fetchGate = make(chan struct{})
	store := newTestStore(t, testPolicy{}, port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Load(ctx, "user-1", false) }()
	waitFor(t, func() bool { return store.IsLoading() })
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("expected silent cancellation, got %v", err)
	}
	if store.LastError() != nil {
		t.Fatalf("cancellation recorded as error: %v", store.LastError())
	}
	if store.State() != enums.StoreStateEmpty {
		t.Fatalf("expected empty after cancelled first load, got %s", store.State())
	}
}

func TestSnapshotReplacesListWholesale(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1, Rank: 1})
	store := loadedStore(t, testPolicy{}, port, "user-1")

	port.stream(t, 0).emit(t,
		testItem{ID: "c", ProductID: "pc", Qty: 1, Rank: 3},
		testItem{ID: "b", ProductID: "pb", Qty: 1, Rank: 2},
	)
	waitFor(t, func() bool {
		return reflect.DeepEqual(ids(store.Items()), []string{"b", "c"})
	})
}

func TestStaleGenerationSnapshotIsDiscarded(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	port.seed("user-2", testItem{ID: "z", ProductID: "pz", Qty: 1})
	store, reg := newMeteredStore(t, testPolicy{}, port)
	ctx := context.Background()

	if err := store.Load(ctx, "user-1", false); err != nil {
		t.Fatalf("load user-1: %v", err)
	}
	staleGen := store.subs.Generation()

	if err := store.Load(ctx, "user-2", false); err != nil {
		t.Fatalf("load user-2: %v", err)
	}
	store.applySnapshot(staleGen, []testItem{{ID: "leak", ProductID: "p-leak", Qty: 9}})

	if got := ids(store.Items()); !reflect.DeepEqual(got, []string{"z"}) {
		t.Fatalf("stale snapshot applied: %v", got)
	}
	if got := snapshotCount(t, reg, metrics.OutcomeDiscarded); got != 1 {
		t.Fatalf("expected one discarded snapshot, got %d", got)
	}

	store.Reset("")
	store.applySnapshot(store.subs.Generation(), []testItem{{ID: "late", ProductID: "p-late"}})
	if len(store.Items()) != 0 {
		t.Fatalf("snapshot applied after reset: %v", ids(store.Items()))
	}
}

func TestIdentitySwitchResetsState(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1})
	store := loadedStore(t, testPolicy{}, port, "user-1")
	first := port.stream(t, 0)

	if err := store.Load(context.Background(), "user-2", false); err != nil {
		t.Fatalf("load user-2: %v", err)
	}
	if store.IsMember("pa") {
		t.Fatalf("previous identity's items survived the switch")
	}
	waitFor(t, func() bool {
		select {
		case <-first.stopped:
			return true
		default:
			return false
		}
	})
	if !store.subs.ActiveFor("user-2") {
		t.Fatalf("expected live subscription for user-2")
	}
}

func TestPendingInsertSurvivesSnapshot(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.seed("user-1", testItem{ID: "a", ProductID: "pa", Qty: 1, Rank: 1})
	store, reg := newMeteredStore(t, testPolicy{}, port)
	if err := store.Load(context.Background(), "user-1", false); err != nil {
		t.Fatalf("load: %v", err)
	}
	stream := port.stream(t, 0)
	applied := func(n int) {
		t.Helper()
		waitFor(t, func() bool { return snapshotCount(t, reg, metrics.OutcomeApplied) == n })
	}
	stale := testItem{ID: "a", ProductID: "pa", Qty: 1, Rank: 1}

	port.mu.Lock()
	port.addGate = make(chan struct{})
	port.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := store.Insert(context.Background(), testItem{ProductID: "pb", Qty: 1, Rank: 2})
		done <- err
	}()
	waitFor(t, func() bool { return store.IsMember("pb") })

	stream.emit(t, stale)
	applied(1)
	if !store.IsMember("pb") {
		t.Fatalf("pending insert hidden by snapshot")
	}

	close(port.addGate)
	if err := <-done; err != nil {
		t.Fatalf("insert: %v", err)
	}
	items := store.Items()
	if len(items) != 2 || IsPlaceholderID(items[1].ID) {
		t.Fatalf("expected acknowledged id, got %v", ids(items))
	}
	committedID := items[1].ID

	// Snapshots that predate the write must not make the line flicker away.
	for i := 0; i < settleLimit; i++ {
		stream.emit(t, stale)
		applied(2 + i)
		if !store.IsMember("pb") {
			t.Fatalf("acknowledged insert flickered away after %d snapshots", i+1)
		}
	}

	stream.emit(t, stale, testItem{ID: committedID, ProductID: "pb", Qty: 1, Rank: 2})
	applied(2 + settleLimit)
	store.mu.Lock()
	remaining := store.pending.len()
	store.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected pending set to settle, got %d", remaining)
	}
	if got := ids(store.Items()); !reflect.DeepEqual(got, []string{"a", committedID}) {
		t.Fatalf("unexpected items %v", got)
	}
}

func TestAcknowledgedInsertYieldsAfterSettleLimit(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	store, reg := newMeteredStore(t, testPolicy{}, port)
	if err := store.Load(context.Background(), "user-1", false); err != nil {
		t.Fatalf("load: %v", err)
	}
	stream := port.stream(t, 0)

	if _, err := store.Insert(context.Background(), testItem{ProductID: "pb", Qty: 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	for i := 0; i <= settleLimit; i++ {
		stream.emit(t)
		want := i + 1
		waitFor(t, func() bool { return snapshotCount(t, reg, metrics.OutcomeApplied) == want })
	}
	if store.IsMember("pb") {
		t.Fatalf("snapshot should win once the settle limit is exceeded")
	}
}

func TestWatchDeliversLatestView(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	store := newTestStore(t, testPolicy{}, port)
	views, cancel := store.Watch()
	defer cancel()

	initial := <-views
	if initial.State != enums.StoreStateEmpty {
		t.Fatalf("expected empty initial view, got %s", initial.State)
	}

	if err := store.Load(context.Background(), "user-1", false); err != nil {
		t.Fatalf("load: %v", err)
	}
	waitFor(t, func() bool {
		select {
		case v := <-views:
			return v.State == enums.StoreStateLive
		default:
			return false
		}
	})
}
