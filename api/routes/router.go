package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/internal/pricing"
	pkgAuth "github.com/angelmondragon/packfinderz-storefront/pkg/auth"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// Params groups everything the router hands to controllers.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	Verifier  pkgAuth.Verifier
	Sessions  controllers.Sessions
	Catalog   controllers.Catalog
	Pricing   *pricing.Engine
	Gatherer  prometheus.Gatherer
	Readiness map[string]controllers.Pinger
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Verifier, logg))

		r.Post("/session/load", controllers.SessionLoad(p.Sessions, logg))
		r.Delete("/session", controllers.SessionEnd(p.Sessions, logg))
		r.Delete("/errors", controllers.ErrorsClear(p.Sessions, logg))

		r.Get("/catalog/products", controllers.CatalogProducts(p.Catalog, p.Sessions, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Sessions, logg))
			r.Delete("/", controllers.CartClear(p.Sessions, logg))
			r.Get("/summary", controllers.CartSummary(p.Sessions, p.Pricing, logg))
			r.Post("/items", controllers.CartAddItem(p.Sessions, p.Catalog, logg))
			r.Patch("/items/{lineId}", controllers.CartUpdateItem(p.Sessions, logg))
			r.Delete("/items/{lineId}", controllers.CartRemoveItem(p.Sessions, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(p.Sessions, logg))
			r.Post("/items", controllers.WishlistAddItem(p.Sessions, p.Catalog, logg))
			r.Post("/toggle", controllers.WishlistToggle(p.Sessions, p.Catalog, logg))
			r.Delete("/items/{productId}", controllers.WishlistRemoveItem(p.Sessions, logg))
		})
	})

	return r
}
