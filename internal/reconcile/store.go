package reconcile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

const placeholderPrefix = "local-"

// IsPlaceholderID reports whether id was minted locally for an insert the
// backend has not acknowledged yet.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// CommitEvent describes a mutation the backend acknowledged.
type CommitEvent[T any] struct {
	Collection string
	Kind       enums.MutationKind
	UserID     string
	Item       T
	Quantity   int
}

// CommitHook observes acknowledged mutations. Hooks run after the store lock
// is released but before the mutating call returns.
type CommitHook[T any] func(ctx context.Context, event CommitEvent[T])

type StoreParams[T any] struct {
	Policy  Policy[T]
	Port    remote.Collection[T]
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
	Hooks   []CommitHook[T]
}

// Store owns the authoritative in-memory list for one signed-in user. It
// applies mutations optimistically, replaces its list from subscription
// snapshots and rolls back writes the backend rejects.
//
// opMu serializes mutations end to end so a second tap observes the first.
// mu guards state and is never held across remote I/O.
type Store[T any] struct {
	policy     Policy[T]
	port       remote.Collection[T]
	logg       *logger.Logger
	metrics    *metrics.StoreMetrics
	hooks      []CommitHook[T]
	subs       *SubscriptionManager[T]
	collection string

	opMu sync.Mutex

	mu         sync.Mutex
	state      enums.StoreState
	userID     string
	epoch      uint64
	items      []T
	pending    *pendingSet[T]
	lastErr    error
	loading    bool
	loadSeq    uint64
	loadCancel context.CancelFunc
	version    uint64
	watchers   map[*watcher[T]]struct{}
}

func NewStore[T any](params StoreParams[T]) (*Store[T], error) {
	if params.Policy == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "policy required")
	}
	if params.Port == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "remote collection required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}

	s := &Store[T]{
		policy:     params.Policy,
		port:       params.Port,
		logg:       params.Logger,
		metrics:    params.Metrics,
		hooks:      params.Hooks,
		collection: params.Policy.Collection(),
		state:      enums.StoreStateEmpty,
		pending:    newPendingSet[T](),
		watchers:   make(map[*watcher[T]]struct{}),
	}

	subs, err := NewSubscriptionManager(SubscriptionParams[T]{
		Port:       params.Port,
		Collection: s.collection,
		Logger:     params.Logger,
		Metrics:    params.Metrics,
		OnSnapshot: s.applySnapshot,
		OnError:    s.streamFailed,
	})
	if err != nil {
		return nil, err
	}
	s.subs = subs
	return s, nil
}

// Items returns a copy of the current list.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItemsLocked()
}

func (s *Store[T]) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the most recent user-visible failure until cleared.
func (s *Store[T]) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store[T]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr == nil {
		return
	}
	s.lastErr = nil
	s.notifyLocked()
}

func (s *Store[T]) State() enums.StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store[T]) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Store[T]) Collection() string {
	return s.collection
}

// Snapshot returns the current view.
func (s *Store[T]) Snapshot() View[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Watch delivers a view after every change, dropping intermediate views a
// slow reader missed. The current view is delivered immediately. The cancel
// func closes the channel.
func (s *Store[T]) Watch() (<-chan View[T], func()) {
	w := &watcher[T]{ch: make(chan View[T], 1)}

	s.mu.Lock()
	s.watchers[w] = struct{}{}
	w.push(s.viewLocked())
	s.mu.Unlock()

	var once sync.Once
	return w.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, w)
			close(w.ch)
			s.mu.Unlock()
		})
	}
}

// IsMember reports whether any entry, optimistic ones included, references
// productID.
func (s *Store[T]) IsMember(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if s.policy.ProductID(item) == productID {
			return true
		}
	}
	return false
}

// Find looks an entry up by document id.
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexByID(s.items, id); idx >= 0 {
		return s.items[idx], true
	}
	var zero T
	return zero, false
}

// Load fetches the user's collection and keeps it live. It is a no-op while
// a load is in flight or a feed already serves userID, unless forceRefresh
// is set. A newer load supersedes an older one silently.
func (s *Store[T]) Load(ctx context.Context, userID string, forceRefresh bool) error {
	userID = strings.TrimSpace(userID)
	logCtx := s.logg.WithUserID(s.logg.WithCollection(ctx, s.collection), userID)

	s.mu.Lock()
	if userID == "" {
		err := pkgerrors.New(pkgerrors.CodeNotAuthenticated, "sign in to load your items")
		s.recordLocked(err)
		s.mu.Unlock()
		return err
	}
	if s.userID != userID {
		if s.userID != "" {
			s.logg.Info(logCtx, "store.identity_changed")
		}
		s.resetLocked(userID)
	}
	if !forceRefresh && (s.loading || s.subs.ActiveFor(userID)) {
		s.mu.Unlock()
		return nil
	}
	if s.loadCancel != nil {
		s.loadCancel()
		s.metrics.IncLoad(s.collection, metrics.OutcomeSuperseded)
	}
	s.loadSeq++
	seq := s.loadSeq
	fetchCtx, cancel := context.WithCancel(ctx)
	s.loadCancel = cancel
	s.loading = true
	if s.state == enums.StoreStateEmpty {
		s.state = enums.StoreStateLoading
	}
	s.notifyLocked()
	s.mu.Unlock()

	items, err := s.port.FetchAll(fetchCtx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	if seq != s.loadSeq {
		return nil
	}
	s.loading = false
	s.loadCancel = nil

	if err != nil {
		if s.state == enums.StoreStateLoading {
			s.state = enums.StoreStateEmpty
		}
		if pkgerrors.IsCancelled(err) || fetchCtx.Err() != nil {
			s.notifyLocked()
			return nil
		}
		wrapped := pkgerrors.Wrap(pkgerrors.CodeRemoteFetchFailed, err, "could not load "+s.collection)
		s.metrics.IncLoad(s.collection, metrics.OutcomeFailed)
		s.logg.Error(logCtx, "store.load_failed", err)
		s.recordLocked(wrapped)
		return wrapped
	}

	s.items = s.overlay(s.sorted(items), false)
	s.state = enums.StoreStateLive
	s.metrics.IncLoad(s.collection, metrics.OutcomeSucceeded)
	s.subs.Start(userID)
	s.notifyLocked()
	s.logg.Debug(logCtx, "store.loaded")
	return nil
}

// Insert applies item optimistically and writes it. An item on the same line
// as an existing entry is merged into it instead of appended. On failure the
// list is restored exactly and the error recorded.
func (s *Store[T]) Insert(ctx context.Context, item T) (T, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var zero T
	kind := enums.MutationKindInsert

	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return zero, err
	}
	if strings.TrimSpace(s.policy.ProductID(item)) == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return zero, err
	}
	prepared, err := s.policy.Prepare(item)
	if err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return zero, err
	}
	userID, epoch := s.userID, s.epoch

	if idx := s.indexBySameLine(s.items, prepared); idx >= 0 {
		return s.mergeLocked(ctx, idx, prepared, userID, epoch)
	}

	presetID := s.policy.ID(prepared)
	key := presetID
	if key == "" {
		key = placeholderPrefix + uuid.NewString()
	}
	optimistic := s.policy.WithID(prepared, key)
	idx := len(s.items)
	if s.policy.Placement() == PlaceHead {
		idx = 0
	}
	s.items = insertAt(s.items, idx, optimistic)
	m := s.pending.add(&pendingMutation[T]{kind: kind, key: key, next: optimistic, index: idx})
	s.notifyLocked()
	s.mu.Unlock()

	id, err := s.port.Add(ctx, userID, prepared)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return optimistic, nil
	}
	if err != nil {
		s.rollbackLocked(m)
		err = s.failLocked(ctx, kind, err)
		s.mu.Unlock()
		return zero, err
	}

	committed := s.policy.WithID(optimistic, id)
	if at := s.indexByID(s.items, key); at >= 0 {
		if id != key && s.indexByID(s.items, id) >= 0 {
			s.items = removeAt(s.items, at)
		} else {
			s.items[at] = committed
		}
	}
	m.key = id
	m.next = committed
	m.acked = true
	s.metrics.IncMutation(s.collection, string(kind), metrics.OutcomeCommitted)
	s.notifyLocked()
	qty, _ := s.policy.Quantity(committed)
	s.mu.Unlock()

	s.emit(ctx, CommitEvent[T]{Kind: kind, UserID: userID, Item: committed, Quantity: qty})
	return committed, nil
}

// mergeLocked is entered with mu held and releases it.
func (s *Store[T]) mergeLocked(ctx context.Context, idx int, incoming T, userID string, epoch uint64) (T, error) {
	var zero T
	kind := enums.MutationKindInsert
	existing := s.items[idx]

	merged, changed, err := s.policy.Merge(existing, incoming)
	if err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return zero, err
	}
	if !changed {
		s.mu.Unlock()
		return existing, nil
	}

	id := s.policy.ID(existing)
	qty, _ := s.policy.Quantity(merged)
	s.items[idx] = merged
	m := s.pending.add(&pendingMutation[T]{
		kind:  enums.MutationKindUpdate,
		key:   id,
		prior: existing,
		next:  merged,
		index: idx,
	})
	s.notifyLocked()
	s.mu.Unlock()

	err = s.port.Update(ctx, userID, id, map[string]any{remote.FieldQuantity: qty})

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return merged, nil
	}
	if err != nil {
		s.rollbackLocked(m)
		err = s.failLocked(ctx, kind, err)
		s.mu.Unlock()
		return zero, err
	}
	m.acked = true
	s.metrics.IncMutation(s.collection, string(kind), metrics.OutcomeCommitted)
	s.notifyLocked()
	s.mu.Unlock()

	s.emit(ctx, CommitEvent[T]{Kind: kind, UserID: userID, Item: merged, Quantity: qty})
	return merged, nil
}

// UpdateQuantity writes a new quantity without touching the list first. The
// list follows once a snapshot delivers the change, or right after the
// acknowledgement when no feed is live.
func (s *Store[T]) UpdateQuantity(ctx context.Context, item T, quantity int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	kind := enums.MutationKindUpdate

	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	if quantity <= 0 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": quantity})
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	target, id, err := s.resolveAssignedLocked(item)
	if err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	if _, ok := s.policy.Quantity(target); !ok {
		err := pkgerrors.New(pkgerrors.CodeValidation, s.collection+" entries have no quantity")
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	if _, err := s.policy.WithQuantity(target, quantity); err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	userID, epoch := s.userID, s.epoch
	s.mu.Unlock()

	err = s.port.Update(ctx, userID, id, map[string]any{remote.FieldQuantity: quantity})

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		err = s.failLocked(ctx, kind, err)
		s.mu.Unlock()
		return err
	}
	updated := target
	s.retargetPendingLocked(id, quantity)
	if !s.subs.Active() {
		if idx := s.indexByID(s.items, id); idx >= 0 {
			if patched, perr := s.policy.WithQuantity(s.items[idx], quantity); perr == nil {
				s.items[idx] = patched
				updated = patched
			}
		}
	}
	s.metrics.IncMutation(s.collection, string(kind), metrics.OutcomeCommitted)
	s.notifyLocked()
	s.mu.Unlock()

	s.emit(ctx, CommitEvent[T]{Kind: kind, UserID: userID, Item: updated, Quantity: quantity})
	return nil
}

// Remove drops item optimistically and deletes it remotely. A failed delete
// puts the item back at its original index.
func (s *Store[T]) Remove(ctx context.Context, item T) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	kind := enums.MutationKindRemove

	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	target, id, err := s.resolveAssignedLocked(item)
	if err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	userID, epoch := s.userID, s.epoch
	m := s.removeOptimisticLocked(id, target)
	s.mu.Unlock()

	err = s.port.Delete(ctx, userID, id)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.rollbackLocked(m)
		err = s.failLocked(ctx, kind, err)
		s.mu.Unlock()
		return err
	}
	m.acked = true
	s.metrics.IncMutation(s.collection, string(kind), metrics.OutcomeCommitted)
	s.notifyLocked()
	s.mu.Unlock()

	s.emit(ctx, CommitEvent[T]{Kind: kind, UserID: userID, Item: target})
	return nil
}

// Clear deletes every entry one at a time. It is best effort: a failed delete
// is rolled back for that entry and the rest are still attempted. The joined
// failures are recorded as one error.
func (s *Store[T]) Clear(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	kind := enums.MutationKindClear

	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.rejectLocked(kind, err)
		s.mu.Unlock()
		return err
	}
	targets := s.copyItemsLocked()
	userID, epoch := s.userID, s.epoch
	s.mu.Unlock()

	var errs error
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := s.policy.ID(target)
		if id == "" || IsPlaceholderID(id) {
			continue
		}

		s.mu.Lock()
		if epoch != s.epoch {
			s.mu.Unlock()
			return nil
		}
		idx := s.indexByID(s.items, id)
		if idx < 0 {
			s.mu.Unlock()
			continue
		}
		current := s.items[idx]
		m := s.removeOptimisticLocked(id, current)
		s.mu.Unlock()

		err := s.port.Delete(ctx, userID, id)

		s.mu.Lock()
		if epoch != s.epoch {
			s.mu.Unlock()
			return nil
		}
		if err != nil {
			s.rollbackLocked(m)
			s.mu.Unlock()
			if pkgerrors.IsCancelled(err) || ctx.Err() != nil {
				return err
			}
			errs = multierr.Append(errs, err)
			continue
		}
		m.acked = true
		s.metrics.IncMutation(s.collection, string(enums.MutationKindRemove), metrics.OutcomeCommitted)
		s.notifyLocked()
		s.mu.Unlock()

		s.emit(ctx, CommitEvent[T]{Kind: enums.MutationKindRemove, UserID: userID, Item: current})
	}

	if errs == nil {
		return nil
	}
	failed := len(multierr.Errors(errs))
	wrapped := pkgerrors.Wrap(pkgerrors.CodeRemoteWriteFailed, errs, "some items could not be removed").
		WithDetails(map[string]any{"failed": failed, "attempted": len(targets)})

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch == s.epoch {
		s.metrics.IncMutation(s.collection, string(kind), metrics.OutcomeFailed)
		s.logg.Warn(s.logg.WithUserID(s.logg.WithCollection(ctx, s.collection), userID), "store.clear_incomplete")
		s.recordLocked(wrapped)
	}
	return wrapped
}

// Reset cancels in-flight work, tears down the feed and empties the list.
// A non-empty userID scopes the store to that identity without loading it.
func (s *Store[T]) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(strings.TrimSpace(userID))
}

// Close resets the store and waits for the feed goroutine to exit.
func (s *Store[T]) Close() {
	s.Reset("")
	s.subs.Close()
}

func (s *Store[T]) resetLocked(userID string) {
	s.epoch++
	if s.loadCancel != nil {
		s.loadCancel()
		s.loadCancel = nil
	}
	s.loadSeq++
	s.loading = false
	s.subs.Stop()
	s.items = nil
	s.pending.reset()
	s.lastErr = nil
	s.state = enums.StoreStateEmpty
	s.userID = userID
	s.notifyLocked()
}

func (s *Store[T]) applySnapshot(gen uint64, items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.subs.Accepts(gen) {
		s.metrics.IncSnapshot(s.collection, metrics.OutcomeDiscarded)
		s.logg.Debug(s.logg.WithGeneration(s.logg.WithCollection(context.Background(), s.collection), gen), "store.snapshot_discarded")
		return
	}
	s.items = s.overlay(s.sorted(items), true)
	s.metrics.IncSnapshot(s.collection, metrics.OutcomeApplied)
	s.notifyLocked()
}

func (s *Store[T]) streamFailed(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.subs.Generation() {
		return
	}
	s.recordLocked(pkgerrors.Wrap(pkgerrors.CodeRemoteFetchFailed, err, s.collection+" updates interrupted"))
}

func (s *Store[T]) checkMutableLocked() error {
	if s.userID == "" {
		return pkgerrors.New(pkgerrors.CodeNotAuthenticated, "sign in to change your "+s.collection)
	}
	if !s.state.AcceptsMutations() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, s.collection+" is not loaded").
			WithDetails(map[string]any{"state": s.state.String()})
	}
	return nil
}

// resolveAssignedLocked finds the live entry item refers to. Lookup is by id
// first and falls back to the line so a caller holding a placeholder still
// reaches the acknowledged entry.
func (s *Store[T]) resolveAssignedLocked(item T) (T, string, error) {
	var zero T
	idx := -1
	if id := s.policy.ID(item); id != "" {
		idx = s.indexByID(s.items, id)
	}
	if idx < 0 && s.policy.ProductID(item) != "" {
		idx = s.indexBySameLine(s.items, item)
	}
	if idx < 0 {
		return zero, "", pkgerrors.New(pkgerrors.CodeItemNotFound, "item is not in your "+s.collection).
			WithDetails(map[string]any{"product_id": s.policy.ProductID(item)})
	}
	target := s.items[idx]
	id := s.policy.ID(target)
	if id == "" || IsPlaceholderID(id) {
		return zero, "", pkgerrors.New(pkgerrors.CodeValidation, "item has not been saved yet")
	}
	return target, id, nil
}

func (s *Store[T]) removeOptimisticLocked(id string, target T) *pendingMutation[T] {
	idx := s.indexByID(s.items, id)
	s.items = removeAt(s.items, idx)
	m := s.pending.add(&pendingMutation[T]{
		kind:  enums.MutationKindRemove,
		key:   id,
		prior: target,
		index: idx,
	})
	s.notifyLocked()
	return m
}

// rollbackLocked applies the inverse of m to the current list. Without an
// intervening snapshot this restores the pre-mutation list exactly.
func (s *Store[T]) rollbackLocked(m *pendingMutation[T]) {
	s.pending.drop(m)
	switch m.kind {
	case enums.MutationKindInsert:
		if idx := s.indexByID(s.items, m.key); idx >= 0 {
			s.items = removeAt(s.items, idx)
		}
	case enums.MutationKindUpdate:
		if idx := s.indexByID(s.items, m.key); idx >= 0 {
			s.items[idx] = m.prior
		}
	case enums.MutationKindRemove:
		if s.indexByID(s.items, m.key) < 0 {
			s.items = insertAt(s.items, clampIndex(m.index, len(s.items)), m.prior)
		}
	}
	s.metrics.IncMutation(s.collection, string(m.kind), metrics.OutcomeRolledBack)
	s.notifyLocked()
}

// failLocked classifies a remote write error. Cancellation is returned
// without being recorded.
func (s *Store[T]) failLocked(ctx context.Context, kind enums.MutationKind, err error) error {
	if pkgerrors.IsCancelled(err) || ctx.Err() != nil {
		return err
	}
	var wrapped error
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeItemNotFound {
		wrapped = typed
	} else {
		wrapped = pkgerrors.Wrap(pkgerrors.CodeRemoteWriteFailed, err, "could not update your "+s.collection)
	}
	s.logg.Warn(s.logg.WithUserID(s.logg.WithCollection(ctx, s.collection), s.userID), "store.mutation_rolled_back")
	s.recordLocked(wrapped)
	return wrapped
}

func (s *Store[T]) rejectLocked(kind enums.MutationKind, err error) {
	s.metrics.IncMutation(s.collection, string(kind), metrics.OutcomeRejected)
	s.recordLocked(err)
}

func (s *Store[T]) recordLocked(err error) {
	if err == nil || pkgerrors.IsCancelled(err) {
		return
	}
	s.lastErr = err
	s.notifyLocked()
}

func (s *Store[T]) emit(ctx context.Context, event CommitEvent[T]) {
	event.Collection = s.collection
	for _, hook := range s.hooks {
		hook(ctx, event)
	}
}

func (s *Store[T]) notifyLocked() {
	s.version++
	if len(s.watchers) == 0 {
		return
	}
	v := s.viewLocked()
	for w := range s.watchers {
		w.push(v)
	}
}

func (s *Store[T]) viewLocked() View[T] {
	return View[T]{
		State:   s.state,
		UserID:  s.userID,
		Items:   s.copyItemsLocked(),
		Loading: s.loading,
		Err:     s.lastErr,
		Version: s.version,
	}
}

func (s *Store[T]) copyItemsLocked() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store[T]) sorted(items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return s.policy.Less(out[i], out[j]) })
	return out
}

func (s *Store[T]) indexByID(list []T, id string) int {
	if id == "" {
		return -1
	}
	for i, item := range list {
		if s.policy.ID(item) == id {
			return i
		}
	}
	return -1
}

func (s *Store[T]) indexBySameLine(list []T, item T) int {
	for i, candidate := range list {
		if s.policy.SameLine(candidate, item) {
			return i
		}
	}
	return -1
}
