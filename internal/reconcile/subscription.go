package reconcile

import (
	"context"
	"sync"

	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

// SubscriptionManager keeps at most one change feed open and tags every feed
// with a generation. Deliveries are only honored while their generation is
// current, so a torn down feed can never overwrite newer state.
type SubscriptionManager[T any] struct {
	port       remote.Collection[T]
	collection string
	logg       *logger.Logger
	metrics    *metrics.StoreMetrics
	onSnapshot func(gen uint64, items []T)
	onError    func(gen uint64, err error)

	base      context.Context
	closeBase context.CancelFunc
	wg        sync.WaitGroup

	mu     sync.Mutex
	gen    uint64
	userID string
	active bool
	closed bool
	cancel context.CancelFunc
}

type SubscriptionParams[T any] struct {
	Port       remote.Collection[T]
	Collection string
	Logger     *logger.Logger
	Metrics    *metrics.StoreMetrics
	OnSnapshot func(gen uint64, items []T)
	OnError    func(gen uint64, err error)
}

func NewSubscriptionManager[T any](params SubscriptionParams[T]) (*SubscriptionManager[T], error) {
	if params.Port == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "remote collection required")
	}
	if params.OnSnapshot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "snapshot handler required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.OnError == nil {
		params.OnError = func(uint64, error) {}
	}
	base, cancel := context.WithCancel(context.Background())
	return &SubscriptionManager[T]{
		port:       params.Port,
		collection: params.Collection,
		logg:       params.Logger,
		metrics:    params.Metrics,
		onSnapshot: params.OnSnapshot,
		onError:    params.OnError,
		base:       base,
		closeBase:  cancel,
	}, nil
}

// Start opens a feed for userID. Starting the identity that is already live
// is a no-op; any other identity replaces the current feed. The returned
// generation tags every delivery from the new feed.
func (m *SubscriptionManager[T]) Start(userID string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.gen, false
	}
	if m.active && m.userID == userID {
		return m.gen, false
	}
	m.stopLocked()

	m.gen++
	gen := m.gen
	ctx, cancel := context.WithCancel(m.base)
	m.cancel = cancel
	m.userID = userID
	m.active = true
	m.metrics.SubscriptionOpened(m.collection)

	m.wg.Add(1)
	go m.run(ctx, gen, userID)

	logCtx := m.logg.WithGeneration(m.logg.WithCollection(context.Background(), m.collection), gen)
	m.logg.Debug(logCtx, "subscription.started")
	return gen, true
}

// Stop tears down the live feed. Once Stop returns no delivery from that
// feed is accepted.
func (m *SubscriptionManager[T]) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *SubscriptionManager[T]) stopLocked() {
	if m.active {
		m.cancel()
		m.cancel = nil
		m.active = false
		m.metrics.SubscriptionClosed(m.collection)
	}
	m.userID = ""
	m.gen++
}

// Accepts reports whether a delivery tagged gen may be applied.
func (m *SubscriptionManager[T]) Accepts(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && m.gen == gen
}

// Generation returns the current generation.
func (m *SubscriptionManager[T]) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// ActiveFor reports whether a feed for userID is live.
func (m *SubscriptionManager[T]) ActiveFor(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && m.userID == userID
}

func (m *SubscriptionManager[T]) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Close stops the feed and waits for its goroutine to exit.
func (m *SubscriptionManager[T]) Close() {
	m.mu.Lock()
	m.stopLocked()
	m.closed = true
	m.mu.Unlock()

	m.closeBase()
	m.wg.Wait()
}

func (m *SubscriptionManager[T]) run(ctx context.Context, gen uint64, userID string) {
	defer m.wg.Done()

	stream, err := m.port.Subscribe(ctx, userID)
	if err != nil {
		m.fail(ctx, gen, err)
		return
	}
	defer stream.Stop()

	for {
		items, err := stream.Next(ctx)
		if err != nil {
			m.fail(ctx, gen, err)
			return
		}
		m.onSnapshot(gen, items)
	}
}

func (m *SubscriptionManager[T]) fail(ctx context.Context, gen uint64, err error) {
	if ctx.Err() != nil || pkgerrors.IsCancelled(err) {
		return
	}

	m.mu.Lock()
	current := m.active && m.gen == gen
	if current {
		m.cancel()
		m.cancel = nil
		m.active = false
		m.metrics.SubscriptionClosed(m.collection)
	}
	m.mu.Unlock()

	if current {
		logCtx := m.logg.WithGeneration(m.logg.WithCollection(context.Background(), m.collection), gen)
		m.logg.Error(logCtx, "subscription.failed", err)
		m.onError(gen, err)
	}
}
