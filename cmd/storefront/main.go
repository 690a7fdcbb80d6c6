package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-storefront/api"
	"github.com/angelmondragon/packfinderz-storefront/api/routes"
	"github.com/angelmondragon/packfinderz-storefront/internal/analytics"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	"github.com/angelmondragon/packfinderz-storefront/internal/reconcile"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/internal/wishlist"
	pkgAuth "github.com/angelmondragon/packfinderz-storefront/pkg/auth"
	"github.com/angelmondragon/packfinderz-storefront/pkg/clock"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/pubsub"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	clk := clock.System()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(registry)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()
	if err := prepareCatalog(ctx, cfg.DB, dbClient, logg); err != nil {
		return err
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	engine, err := pricing.NewEngine(cfg.Pricing)
	if err != nil {
		return err
	}
	verifier, err := pkgAuth.NewVerifier(ctx, cfg.Auth, cfg.GCP)
	if err != nil {
		return err
	}

	remotes, err := openBackends(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := remotes.close(); err != nil {
			logg.Error(context.Background(), "error closing remote backends", err)
		}
	}()
	readiness := remotes.pingers
	readiness["db"] = dbClient

	var (
		cartHooks     []reconcile.CommitHook[cart.LineItem]
		wishlistHooks []reconcile.CommitHook[wishlist.Entry]
	)
	if cfg.PubSub.AnalyticsEnabled {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		publisher := psClient.AnalyticsPublisher(logg)
		if publisher == nil {
			return errors.New("analytics topic not configured")
		}
		defer publisher.Stop()

		tracker, err := analytics.NewTracker(analytics.TrackerParams{Publisher: publisher, Clock: clk, Logger: logg})
		if err != nil {
			return err
		}
		cartHooks = append(cartHooks, tracker.CartHook())
		wishlistHooks = append(wishlistHooks, tracker.WishlistHook())
		readiness["pubsub"] = psClient
	}

	sessions, err := session.NewRegistry(func() (*session.Session, error) {
		cartStore, err := cart.NewStore(cart.StoreParams{
			Port:    remotes.cart,
			Clock:   clk,
			Logger:  logg,
			Metrics: storeMetrics,
			Hooks:   cartHooks,
		})
		if err != nil {
			return nil, err
		}
		wishlistStore, err := wishlist.NewStore(wishlist.StoreParams{
			Port:    remotes.wishlist,
			Clock:   clk,
			Logger:  logg,
			Metrics: storeMetrics,
			Hooks:   wishlistHooks,
		})
		if err != nil {
			cartStore.Close()
			return nil, err
		}
		return session.New(cartStore, wishlistStore)
	})
	if err != nil {
		return err
	}
	defer sessions.Close()

	server := api.NewServer(cfg.App, routes.NewRouter(routes.Params{
		Config:    cfg,
		Logger:    logg,
		Verifier:  verifier,
		Sessions:  sessions,
		Catalog:   catalogSvc,
		Pricing:   engine,
		Gatherer:  registry,
		Readiness: readiness,
	}))

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           server.Addr,
		"remote_backend": cfg.Remote.Backend,
		"auth_provider":  cfg.Auth.Provider,
	})
	logg.Info(startCtx, "starting storefront server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(startCtx, "shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// prepareCatalog migrates the catalog schema and loads the seed file when
// configured.
func prepareCatalog(ctx context.Context, cfg config.DBConfig, dbClient *db.Client, logg *logger.Logger) error {
	if cfg.AutoMigrate {
		if err := dbClient.Migrate(ctx); err != nil {
			return err
		}
	}
	if cfg.SeedFile == "" {
		return nil
	}

	products, err := catalog.ReadSeedFile(cfg.SeedFile)
	if err != nil {
		return err
	}
	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return catalog.NewRepository(tx).Upsert(ctx, products...)
	})
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "products", len(products)), "catalog seeded")
	return nil
}
