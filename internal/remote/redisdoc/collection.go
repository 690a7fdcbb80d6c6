package redisdoc

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/redis"
)

// Store is the subset of the redis client the collection needs.
type Store interface {
	HSet(ctx context.Context, key, field string, value []byte) error
	HGet(ctx context.Context, key, field string) ([]byte, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) (int64, error)
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string) (redis.Subscription, error)
	DocumentKey(collection, userID string) string
	ChangesChannel(collection, userID string) string
}

var _ Store = (*redis.Client)(nil)

// Collection keeps one hash per user, one JSON document per field, and
// announces every write on a per-user channel. Subscribers refetch the hash
// on each notification.
type Collection[T any] struct {
	store Store
	ident remote.Identifier[T]
	name  string
}

var _ remote.Collection[struct{}] = (*Collection[struct{}])(nil)

func New[T any](store Store, ident remote.Identifier[T], name string) (*Collection[T], error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redis store required")
	}
	if ident == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identifier required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "collection name required")
	}
	return &Collection[T]{store: store, ident: ident, name: name}, nil
}

func (c *Collection[T]) keys(userID string) (string, string, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeNotAuthenticated, "user id is required")
	}
	return c.store.DocumentKey(c.name, uid), c.store.ChangesChannel(c.name, uid), nil
}

func (c *Collection[T]) FetchAll(ctx context.Context, userID string) ([]T, error) {
	key, _, err := c.keys(userID)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, key)
}

func (c *Collection[T]) fetch(ctx context.Context, key string) ([]T, error) {
	raw, err := c.store.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		item, err := remote.Decode(c.ident, id, []byte(raw[id]))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteFetchFailed, err, "decode document").
				WithDetails(map[string]any{"id": id})
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Collection[T]) Add(ctx context.Context, userID string, item T) (string, error) {
	key, channel, err := c.keys(userID)
	if err != nil {
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
	if err := c.store.HSet(ctx, key, id, doc); err != nil {
		return "", err
	}
	return id, c.notify(ctx, channel, id)
}

// Update is a read-modify-write of one field; concurrent updates to the same
// document are last-writer-wins.
func (c *Collection[T]) Update(ctx context.Context, userID, id string, fields map[string]any) error {
	key, channel, err := c.keys(userID)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	doc, err := c.store.HGet(ctx, key, id)
	if errors.Is(err, redis.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeItemNotFound, "document not found").
			WithDetails(map[string]any{"id": id})
	}
	if err != nil {
		return err
	}
	merged, err := remote.ApplyFields(doc, fields)
	if err != nil {
		return err
	}
	if err := c.store.HSet(ctx, key, id, merged); err != nil {
		return err
	}
	return c.notify(ctx, channel, id)
}

func (c *Collection[T]) Delete(ctx context.Context, userID, id string) error {
	key, channel, err := c.keys(userID)
	if err != nil {
		return err
	}
	removed, err := c.store.HDel(ctx, key, id)
	if err != nil {
		return err
	}
	if removed == 0 {
		return nil
	}
	return c.notify(ctx, channel, id)
}

func (c *Collection[T]) notify(ctx context.Context, channel, id string) error {
	if err := c.store.Publish(ctx, channel, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish change").
			WithDetails(map[string]any{"id": id})
	}
	return nil
}

// Subscribe confirms the channel subscription before the first fetch so no
// write between the two is lost.
func (c *Collection[T]) Subscribe(ctx context.Context, userID string) (remote.SnapshotStream[T], error) {
	key, channel, err := c.keys(userID)
	if err != nil {
		return nil, err
	}
	sub, err := c.store.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	return &stream[T]{
		owner:   c,
		key:     key,
		sub:     sub,
		stopped: make(chan struct{}),
	}, nil
}

type stream[T any] struct {
	owner   *Collection[T]
	key     string
	sub     redis.Subscription
	started bool
	stopped chan struct{}
	once    sync.Once
}

func (s *stream[T]) Next(ctx context.Context) ([]T, error) {
	if !s.started {
		s.started = true
		return s.refetch(ctx)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopped:
		return nil, context.Canceled
	case _, ok := <-s.sub.Messages():
		if !ok {
			return nil, context.Canceled
		}
	}
	s.drain()
	return s.refetch(ctx)
}

// drain collapses queued notifications into the refetch that follows.
func (s *stream[T]) drain() {
	for {
		select {
		case _, ok := <-s.sub.Messages():
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *stream[T]) refetch(ctx context.Context) ([]T, error) {
	select {
	case <-s.stopped:
		return nil, context.Canceled
	default:
	}
	return s.owner.fetch(ctx, s.key)
}

func (s *stream[T]) Stop() {
	s.once.Do(func() {
		close(s.stopped)
		_ = s.sub.Close()
	})
}
