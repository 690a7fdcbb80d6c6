package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// Collection is an in-process document collection with a change feed. It is
// safe for concurrent use and serves local development and tests.
type Collection[T any] struct {
	ident remote.Identifier[T]

	mu     sync.Mutex
	docs   map[string]map[string][]byte
	subs   map[string]map[*stream[T]]struct{}
	failOn map[string]error
}

var _ remote.Collection[struct{}] = (*Collection[struct{}])(nil)

// New creates an empty collection.
func New[T any](ident remote.Identifier[T]) *Collection[T] {
	return &Collection[T]{
		ident:  ident,
		docs:   make(map[string]map[string][]byte),
		subs:   make(map[string]map[*stream[T]]struct{}),
		failOn: make(map[string]error),
	}
}

// Operation names accepted by FailNext.
const (
	OpFetchAll  = "fetch_all"
	OpAdd       = "add"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpSubscribe = "subscribe"
)

// FailNext makes the next call to op return err.
func (c *Collection[T]) FailNext(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOn[op] = err
}

func (c *Collection[T]) takeFailureLocked(op string) error {
	err, ok := c.failOn[op]
	if !ok {
		return nil
	}
	delete(c.failOn, op)
	return err
}

func (c *Collection[T]) FetchAll(ctx context.Context, userID string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailureLocked(OpFetchAll); err != nil {
		return nil, err
	}
	return c.snapshotLocked(userID)
}

func (c *Collection[T]) Add(ctx context.Context, userID string, item T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(userID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotAuthenticated, "user id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailureLocked(OpAdd); err != nil {
		return "", err
	}

	id := c.ident.ID(item)
	if id == "" {
		id = uuid.NewString()
	}
	doc, err := remote.Encode(c.ident, item)
	if err != nil {
		return "", err
	}
	userDocs, ok := c.docs[userID]
	if !ok {
		userDocs = make(map[string][]byte)
		c.docs[userID] = userDocs
	}
	userDocs[id] = doc
	c.broadcastLocked(userID)
	return id, nil
}

func (c *Collection[T]) Update(ctx context.Context, userID, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailureLocked(OpUpdate); err != nil {
		return err
	}

	doc, ok := c.docs[userID][id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeItemNotFound, "document not found").
			WithDetails(map[string]any{"id": id})
	}
	patched, err := remote.ApplyFields(doc, fields)
	if err != nil {
		return err
	}
	c.docs[userID][id] = patched
	c.broadcastLocked(userID)
	return nil
}

// Delete is idempotent; removing a missing document succeeds.
func (c *Collection[T]) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailureLocked(OpDelete); err != nil {
		return err
	}
	if _, ok := c.docs[userID][id]; !ok {
		return nil
	}
	delete(c.docs[userID], id)
	c.broadcastLocked(userID)
	return nil
}

func (c *Collection[T]) Subscribe(ctx context.Context, userID string) (remote.SnapshotStream[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailureLocked(OpSubscribe); err != nil {
		return nil, err
	}

	s := &stream[T]{
		owner:   c,
		userID:  userID,
		updates: make(chan []T, 1),
		stopped: make(chan struct{}),
	}
	if _, ok := c.subs[userID]; !ok {
		c.subs[userID] = make(map[*stream[T]]struct{})
	}
	c.subs[userID][s] = struct{}{}

	initial, err := c.snapshotLocked(userID)
	if err != nil {
		return nil, err
	}
	s.offer(initial)
	return s, nil
}

// Subscribers reports how many streams are open for userID.
func (c *Collection[T]) Subscribers(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[userID])
}

func (c *Collection[T]) snapshotLocked(userID string) ([]T, error) {
	userDocs := c.docs[userID]
	ids := make([]string, 0, len(userDocs))
	for id := range userDocs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		item, err := remote.Decode(c.ident, id, userDocs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Collection[T]) broadcastLocked(userID string) {
	subs := c.subs[userID]
	if len(subs) == 0 {
		return
	}
	snapshot, err := c.snapshotLocked(userID)
	if err != nil {
		return
	}
	for s := range subs {
		s.offer(snapshot)
	}
}

func (c *Collection[T]) detach(s *stream[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if subs, ok := c.subs[s.userID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(c.subs, s.userID)
		}
	}
}

type stream[T any] struct {
	owner   *Collection[T]
	userID  string
	updates chan []T
	stopped chan struct{}
	once    sync.Once
}

// offer keeps only the newest snapshot; a slow reader skips intermediate ones.
func (s *stream[T]) offer(snapshot []T) {
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- snapshot:
	default:
	}
}

func (s *stream[T]) Next(ctx context.Context) ([]T, error) {
	select {
	case snapshot := <-s.updates:
		out := make([]T, len(snapshot))
		copy(out, snapshot)
		return out, nil
	case <-s.stopped:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *stream[T]) Stop() {
	s.once.Do(func() {
		close(s.stopped)
		s.owner.detach(s)
	})
}
