package session

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// Session binds one cart store and one wishlist store to the signed-in
// identity. Signing in as someone else resets both before loading.
type Session struct {
	Cart     *cart.Store
	Wishlist *wishlist.Store

	mu     sync.Mutex
	userID string
}

func New(cartStore *cart.Store, wishlistStore *wishlist.Store) (*Session, error) {
	if cartStore == nil || wishlistStore == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart and wishlist stores are required")
	}
	return &Session{Cart: cartStore, Wishlist: wishlistStore}, nil
}

// SignIn loads both collections for userID. Both loads run even if one
// fails; the returned error combines their failures.
func (s *Session) SignIn(ctx context.Context, userID string, force bool) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeNotAuthenticated, "sign in to load your items")
	}

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	var wg sync.WaitGroup
	var cartErr, wishlistErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		cartErr = s.Cart.Load(ctx, userID, force)
	}()
	go func() {
		defer wg.Done()
		wishlistErr = s.Wishlist.Load(ctx, userID, force)
	}()
	wg.Wait()
	return multierr.Append(cartErr, wishlistErr)
}

// SignOut drops both lists and their feeds.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
	s.Cart.Reset("")
	s.Wishlist.Reset("")
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Bound reports whether both stores are loading or live for userID. A
// session whose first load was cancelled or failed is not bound.
func (s *Session) Bound(userID string) bool {
	if s.UserID() != userID {
		return false
	}
	for _, st := range []struct {
		state enums.StoreState
		user  string
	}{
		{s.Cart.State(), s.Cart.UserID()},
		{s.Wishlist.State(), s.Wishlist.UserID()},
	} {
		if st.user != userID || !st.state.AcceptsMutations() {
			return false
		}
	}
	return true
}

// ClearErrors dismisses the last recorded failure on both stores.
func (s *Session) ClearErrors() {
	s.Cart.ClearError()
	s.Wishlist.ClearError()
}

// LastError combines the outstanding failures of both stores.
func (s *Session) LastError() error {
	return multierr.Append(s.Cart.LastError(), s.Wishlist.LastError())
}

// Close tears both stores down and waits for their feeds to exit.
func (s *Session) Close() {
	s.Cart.Close()
	s.Wishlist.Close()
}
