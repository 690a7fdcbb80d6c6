package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

type testItem struct {
	ID        string `json:"id,omitempty"`
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
	Qty       int    `json:"quantity"`
	Stock     int    `json:"stock,omitempty"`
	Rank      int    `json:"rank"`
}

// testPolicy behaves like the cart by default and like the wishlist when
// natural is set.
type testPolicy struct {
	natural bool
}

func (p testPolicy) Collection() string {
	if p.natural {
		return "wishlist"
	}
	return "cart"
}

func (testPolicy) ID(item testItem) string { return item.ID }

func (testPolicy) WithID(item testItem, id string) testItem {
	item.ID = id
	return item
}

func (testPolicy) ProductID(item testItem) string { return item.ProductID }

func (testPolicy) SameLine(a, b testItem) bool {
	return a.ProductID == b.ProductID && a.Variant == b.Variant
}

func (p testPolicy) Prepare(item testItem) (testItem, error) {
	if p.natural {
		item.ID = item.ProductID
		item.Qty = 0
		return item, nil
	}
	item.ID = ""
	if item.Qty <= 0 {
		item.Qty = 1
	}
	return p.WithQuantity(item, item.Qty)
}

func (p testPolicy) Merge(existing, incoming testItem) (testItem, bool, error) {
	if p.natural {
		return existing, false, nil
	}
	merged, err := p.WithQuantity(existing, existing.Qty+incoming.Qty)
	if err != nil {
		return existing, false, err
	}
	return merged, true, nil
}

func (p testPolicy) Quantity(item testItem) (int, bool) {
	if p.natural {
		return 0, false
	}
	return item.Qty, true
}

func (p testPolicy) WithQuantity(item testItem, qty int) (testItem, error) {
	if p.natural {
		return item, pkgerrors.New(pkgerrors.CodeValidation, "no quantities")
	}
	if item.Stock > 0 && qty > item.Stock {
		return item, pkgerrors.New(pkgerrors.CodeStockExceeded, "not enough stock")
	}
	item.Qty = qty
	return item, nil
}

func (p testPolicy) Placement() Placement {
	if p.natural {
		return PlaceHead
	}
	return PlaceTail
}

func (testPolicy) Less(a, b testItem) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.ID < b.ID
}

// fakePort is a scriptable remote collection. Gates block the matching call
// until closed or the call's context ends.
type fakePort struct {
	mu        sync.Mutex
	docs      map[string]map[string]testItem
	nextID    int
	fetchErr  error
	addErr    error
	updateErr error
	deleteErr map[string]error
	subErr    error

	fetchGate  chan struct{}
	addGate    chan struct{}
	updateGate chan struct{}

	fetchCalls  int
	addCalls    int
	updateCalls int
	subCalls    int
	streams     []*fakeStream
}

func newFakePort() *fakePort {
	return &fakePort{
		docs:      make(map[string]map[string]testItem),
		deleteErr: make(map[string]error),
	}
}

var _ remote.Collection[testItem] = (*fakePort)(nil)

func (f *fakePort) seed(userID string, items ...testItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[userID] == nil {
		f.docs[userID] = make(map[string]testItem)
	}
	for _, item := range items {
		f.docs[userID][item.ID] = item
	}
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakePort) FetchAll(ctx context.Context, userID string) ([]testItem, error) {
	f.mu.Lock()
	f.fetchCalls++
	gate, fetchErr := f.fetchGate, f.fetchErr
	f.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]testItem, 0, len(f.docs[userID]))
	for _, item := range f.docs[userID] {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakePort) Add(ctx context.Context, userID string, item testItem) (string, error) {
	f.mu.Lock()
	f.addCalls++
	gate, addErr := f.addGate, f.addErr
	f.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return "", err
	}
	if addErr != nil {
		return "", addErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := item.ID
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("doc-%d", f.nextID)
	}
	item.ID = id
	if f.docs[userID] == nil {
		f.docs[userID] = make(map[string]testItem)
	}
	f.docs[userID][id] = item
	return id, nil
}

func (f *fakePort) Update(ctx context.Context, userID, id string, fields map[string]any) error {
	f.mu.Lock()
	f.updateCalls++
	gate, updateErr := f.updateGate, f.updateErr
	f.mu.Unlock()

	if err := wait(ctx, gate); err != nil {
		return err
	}
	if updateErr != nil {
		return updateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.docs[userID][id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeItemNotFound, "missing")
	}
	if qty, ok := fields[remote.FieldQuantity].(int); ok {
		item.Qty = qty
	}
	f.docs[userID][id] = item
	return nil
}

func (f *fakePort) Delete(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	delete(f.docs[userID], id)
	return nil
}

func (f *fakePort) Subscribe(ctx context.Context, userID string) (remote.SnapshotStream[testItem], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCalls++
	if f.subErr != nil {
		return nil, f.subErr
	}
	s := &fakeStream{userID: userID, ch: make(chan []testItem), stopped: make(chan struct{})}
	f.streams = append(f.streams, s)
	return s, nil
}

func (f *fakePort) stream(t *testing.T, i int) *fakeStream {
	t.Helper()
	var s *fakeStream
	waitFor(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		if len(f.streams) > i {
			s = f.streams[i]
			return true
		}
		return false
	})
	return s
}

func (f *fakePort) calls() (fetch, add, update, sub int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.addCalls, f.updateCalls, f.subCalls
}

type fakeStream struct {
	userID  string
	ch      chan []testItem
	stopped chan struct{}
	once    sync.Once
}

func (s *fakeStream) Next(ctx context.Context) ([]testItem, error) {
	select {
	case items := <-s.ch:
		return items, nil
	case <-s.stopped:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeStream) Stop() {
	s.once.Do(func() { close(s.stopped) })
}

// emit blocks until the subscription goroutine takes the snapshot.
func (s *fakeStream) emit(t *testing.T, items ...testItem) {
	t.Helper()
	select {
	case s.ch <- items:
	case <-time.After(2 * time.Second):
		t.Fatalf("snapshot for %s was never consumed", s.userID)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func newTestStore(t *testing.T, policy testPolicy, port remote.Collection[testItem]) *Store[testItem] {
	t.Helper()
	store, err := NewStore(StoreParams[testItem]{Policy: policy, Port: port})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func ids(items []testItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func newMeteredStore(t *testing.T, policy testPolicy, port remote.Collection[testItem]) (*Store[testItem], *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	store, err := NewStore(StoreParams[testItem]{Policy: policy, Port: port, Metrics: metrics.NewStoreMetrics(reg)})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	return store, reg
}

func snapshotCount(t *testing.T, reg *prometheus.Registry, outcome string) int {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "store_snapshots_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return int(m.GetCounter().GetValue())
				}
			}
		}
	}
	return 0
}
