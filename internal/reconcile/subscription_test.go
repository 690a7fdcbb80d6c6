package reconcile

import (
	"errors"
	"sync"
	"testing"
)

type recordedSnapshot struct {
	gen   uint64
	items []testItem
}

type snapshotRecorder struct {
	mu        sync.Mutex
	snapshots []recordedSnapshot
	errs      []error
}

func (r *snapshotRecorder) onSnapshot(gen uint64, items []testItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, recordedSnapshot{gen: gen, items: items})
}

func (r *snapshotRecorder) onError(_ uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *snapshotRecorder) count() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots), len(r.errs)
}

func newTestManager(t *testing.T, port *fakePort, rec *snapshotRecorder) *SubscriptionManager[testItem] {
	t.Helper()
	m, err := NewSubscriptionManager(SubscriptionParams[testItem]{
		Port:       port,
		Collection: "cart",
		OnSnapshot: rec.onSnapshot,
		OnError:    rec.onError,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestSubscriptionStartIsIdempotentPerIdentity(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	rec := &snapshotRecorder{}
	m := newTestManager(t, port, rec)

	gen, started := m.Start("user-1")
	if !started {
		t.Fatalf("expected first start to open a feed")
	}
	again, started := m.Start("user-1")
	if started || again != gen {
		t.Fatalf("expected no-op restart, got gen=%d started=%v", again, started)
	}
	port.stream(t, 0).emit(t, testItem{ID: "a"})
	waitFor(t, func() bool {
		n, _ := rec.count()
		return n == 1
	})
	if rec.snapshots[0].gen != gen || !m.Accepts(gen) {
		t.Fatalf("snapshot tagged with wrong generation")
	}
	if _, _, _, sub := port.calls(); sub != 1 {
		t.Fatalf("expected a single subscribe call, got %d", sub)
	}
}

func TestSubscriptionSwitchInvalidatesOldGeneration(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	rec := &snapshotRecorder{}
	m := newTestManager(t, port, rec)

	first, _ := m.Start("user-1")
	second, started := m.Start("user-2")
	if !started || second <= first {
		t.Fatalf("expected a newer generation, got %d after %d", second, first)
	}
	if m.Accepts(first) {
		t.Fatalf("old generation still accepted")
	}
	if !m.ActiveFor("user-2") || m.ActiveFor("user-1") {
		t.Fatalf("unexpected active identity")
	}

	old := port.stream(t, 0)
	waitFor(t, func() bool {
		select {
		case <-old.stopped:
			return true
		default:
			return false
		}
	})
}

func TestSubscriptionStopRejectsEveryGeneration(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	m := newTestManager(t, port, &snapshotRecorder{})

	gen, _ := m.Start("user-1")
	m.Stop()
	if m.Accepts(gen) || m.Active() {
		t.Fatalf("stopped feed still accepted")
	}
	if m.Accepts(m.Generation()) {
		t.Fatalf("no generation may be accepted without a live feed")
	}

	restarted, started := m.Start("user-1")
	if !started || restarted == gen {
		t.Fatalf("expected a fresh generation after stop")
	}
}

func TestSubscriptionFailureReportsOnce(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.subErr = errors.New("permission denied")
	rec := &snapshotRecorder{}
	m := newTestManager(t, port, rec)

	m.Start("user-1")
	waitFor(t, func() bool {
		_, n := rec.count()
		return n == 1
	})
	if m.Active() {
		t.Fatalf("failed feed should not stay active")
	}
}

func TestSubscriptionCloseStopsStarts(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	rec := &snapshotRecorder{}
	m, err := NewSubscriptionManager(SubscriptionParams[testItem]{Port: port, OnSnapshot: rec.onSnapshot})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.Start("user-1")
	m.Close()

	if _, started := m.Start("user-2"); started {
		t.Fatalf("closed manager opened a feed")
	}
	if _, errs := rec.count(); errs != 0 {
		t.Fatalf("close should not report errors")
	}
}
