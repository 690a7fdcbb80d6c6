package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/remote"
	remotefs "github.com/angelmondragon/packfinderz-storefront/internal/remote/firestore"
	"github.com/angelmondragon/packfinderz-storefront/internal/remote/memory"
	"github.com/angelmondragon/packfinderz-storefront/internal/remote/redisdoc"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	pkgfirestore "github.com/angelmondragon/packfinderz-storefront/pkg/firestore"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/redis"
)

// backends holds the remote collections behind every session plus the
// connections that must be pinged and closed with them.
type backends struct {
	cart     remote.Collection[cart.LineItem]
	wishlist remote.Collection[wishlist.Entry]
	pingers  map[string]controllers.Pinger
	closers  []func() error
}

func openBackends(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backends, error) {
	b := &backends{pingers: map[string]controllers.Pinger{}}

	switch cfg.Remote.Backend {
	case config.RemoteBackendMemory:
		b.cart = memory.New[cart.LineItem](cart.Policy{})
		b.wishlist = memory.New[wishlist.Entry](wishlist.Policy{})

	case config.RemoteBackendFirestore:
		client, err := pkgfirestore.New(ctx, cfg.GCP, logg)
		if err != nil {
			return nil, err
		}
		b.pingers["firestore"] = client
		b.closers = append(b.closers, client.Close)

		cartCol, err := remotefs.New(remotefs.Params[cart.LineItem]{
			Client: client.Firestore(),
			Ident:  cart.Policy{},
			Root:   cfg.Remote.UsersCollection,
			Name:   cfg.Remote.CartCollection,
		})
		if err != nil {
			b.close()
			return nil, err
		}
		wishlistCol, err := remotefs.New(remotefs.Params[wishlist.Entry]{
			Client: client.Firestore(),
			Ident:  wishlist.Policy{},
			Root:   cfg.Remote.UsersCollection,
			Name:   cfg.Remote.WishlistCollection,
		})
		if err != nil {
			b.close()
			return nil, err
		}
		b.cart, b.wishlist = cartCol, wishlistCol

	case config.RemoteBackendRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		b.pingers["redis"] = client
		b.closers = append(b.closers, client.Close)

		cartCol, err := redisdoc.New[cart.LineItem](client, cart.Policy{}, cfg.Remote.CartCollection)
		if err != nil {
			b.close()
			return nil, err
		}
		wishlistCol, err := redisdoc.New[wishlist.Entry](client, wishlist.Policy{}, cfg.Remote.WishlistCollection)
		if err != nil {
			b.close()
			return nil, err
		}
		b.cart, b.wishlist = cartCol, wishlistCol

	default:
		return nil, fmt.Errorf("unsupported remote backend %q", cfg.Remote.Backend)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "remote_backend", cfg.Remote.Backend), "remote collections ready")
	}
	return b, nil
}

// close releases connections in reverse order of opening.
func (b *backends) close() error {
	var err error
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i]())
	}
	b.closers = nil
	return err
}
