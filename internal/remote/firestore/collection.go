package firestore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// Collection stores documents at {root}/{userID}/{name}/{docID}.
type Collection[T any] struct {
	client *firestore.Client
	ident  remote.Identifier[T]
	root   string
	name   string
}

type Params[T any] struct {
	Client *firestore.Client
	Ident  remote.Identifier[T]
	// Root is the per-user parent collection, usually "users".
	Root string
	Name string
}

func New[T any](params Params[T]) (*Collection[T], error) {
	if params.Client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "firestore client required")
	}
	if params.Ident == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identifier required")
	}
	if strings.TrimSpace(params.Root) == "" || strings.TrimSpace(params.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "collection path required")
	}
	return &Collection[T]{
		client: params.Client,
		ident:  params.Ident,
		root:   params.Root,
		name:   params.Name,
	}, nil
}

func (c *Collection[T]) col(userID string) (*firestore.CollectionRef, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "user id is required")
	}
	return c.client.Collection(c.root).Doc(uid).Collection(c.name), nil
}

func (c *Collection[T]) FetchAll(ctx context.Context, userID string) ([]T, error) {
	col, err := c.col(userID)
	if err != nil {
		return nil, err
	}
	docs, err := col.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return c.decodeAll(docs)
}

// Add creates the document under the item's preset id, or under a generated
// id when it has none.
func (c *Collection[T]) Add(ctx context.Context, userID string, item T) (string, error) {
	col, err := c.col(userID)
	if err != nil {
		return "", err
	}
	ref := col.NewDoc()
	if id := c.ident.ID(item); id != "" {
		ref = col.Doc(id)
	}
	if _, err := ref.Set(ctx, c.ident.WithID(item, "")); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (c *Collection[T]) Update(ctx context.Context, userID, id string, fields map[string]any) error {
	col, err := c.col(userID)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := col.Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return pkgerrors.Wrap(pkgerrors.CodeItemNotFound, err, "document not found").
				WithDetails(map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// Delete succeeds for documents that do not exist.
func (c *Collection[T]) Delete(ctx context.Context, userID, id string) error {
	col, err := c.col(userID)
	if err != nil {
		return err
	}
	_, err = col.Doc(id).Delete(ctx)
	return err
}

func (c *Collection[T]) Subscribe(ctx context.Context, userID string) (remote.SnapshotStream[T], error) {
	col, err := c.col(userID)
	if err != nil {
		return nil, err
	}
	listenCtx, cancel := context.WithCancel(ctx)
	return &stream[T]{
		owner:  c,
		it:     col.Snapshots(listenCtx),
		cancel: cancel,
	}, nil
}

func (c *Collection[T]) decodeAll(docs []*firestore.DocumentSnapshot) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteFetchFailed, err, "decode document").
				WithDetails(map[string]any{"id": doc.Ref.ID})
		}
		out = append(out, c.ident.WithID(item, doc.Ref.ID))
	}
	return out, nil
}

// stream adapts a query snapshot iterator. The iterator is only touched from
// the goroutine calling Next; Stop cancels the listen context to unblock it.
type stream[T any] struct {
	owner  *Collection[T]
	it     *firestore.QuerySnapshotIterator
	cancel context.CancelFunc
	once   sync.Once
}

func (s *stream[T]) Next(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		s.it.Stop()
		return nil, err
	}
	snap, err := s.it.Next()
	if err != nil {
		s.it.Stop()
		if errors.Is(err, iterator.Done) {
			return nil, context.Canceled
		}
		return nil, err
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, err
	}
	return s.owner.decodeAll(docs)
}

func (s *stream[T]) Stop() {
	s.once.Do(s.cancel)
}
