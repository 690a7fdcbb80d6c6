package controllers

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/reconcile"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
)

// Sessions hands out the per-user session behind an authenticated request.
type Sessions interface {
	Get(userID string) (*session.Session, error)
	Lookup(userID string) (*session.Session, bool)
	Remove(userID string) bool
}

type storeView[T any] struct {
	State     enums.StoreState `json:"state"`
	UserID    string           `json:"user_id,omitempty"`
	Loading   bool             `json:"loading"`
	Version   uint64           `json:"version"`
	Items     []T              `json:"items"`
	LastError *types.APIError  `json:"last_error,omitempty"`
}

func newStoreView[T any](v reconcile.View[T]) storeView[T] {
	items := v.Items
	if items == nil {
		items = []T{}
	}
	return storeView[T]{
		State:     v.State,
		UserID:    v.UserID,
		Loading:   v.Loading,
		Version:   v.Version,
		Items:     items,
		LastError: responses.PublicError(v.Err),
	}
}

type cartView struct {
	storeView[cart.LineItem]
	ItemCount int `json:"item_count"`
}

func newCartView(store *cart.Store) cartView {
	view := newStoreView(store.Snapshot())
	count := 0
	for _, line := range view.Items {
		count += line.Quantity
	}
	return cartView{storeView: view, ItemCount: count}
}

type wishlistView struct {
	storeView[wishlist.Entry]
	ProductIDs []string `json:"product_ids"`
}

func newWishlistView(store *wishlist.Store) wishlistView {
	view := newStoreView(store.Snapshot())
	ids := make([]string, len(view.Items))
	for i, e := range view.Items {
		ids[i] = e.ProductID
	}
	return wishlistView{storeView: view, ProductIDs: ids}
}

type sessionView struct {
	UserID   string       `json:"user_id"`
	Cart     cartView     `json:"cart"`
	Wishlist wishlistView `json:"wishlist"`
}

func newSessionView(sess *session.Session) sessionView {
	return sessionView{
		UserID:   sess.UserID(),
		Cart:     newCartView(sess.Cart),
		Wishlist: newWishlistView(sess.Wishlist),
	}
}

// callerSession returns the session of the authenticated user, loading both
// lists whenever they are not yet bound to that user.
func callerSession(r *http.Request, sessions Sessions) (*session.Session, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session registry unavailable")
	}
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "sign in to continue")
	}
	sess, err := sessions.Get(userID)
	if err != nil {
		return nil, err
	}
	if !sess.Bound(userID) {
		if err := sess.SignIn(r.Context(), userID, false); err != nil {
			return nil, err
		}
	}
	return sess, nil
}
