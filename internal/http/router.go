package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_shoe_store/internal/checkout"
	"github.com/fjod/go_shoe_store/internal/domain"
	"github.com/fjod/go_shoe_store/internal/provider"
)

type RouterConfig struct {
	Catalog        Catalog
	Stores         *provider.Stores
	Checkout       *checkout.Service
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	products := NewProductHandler(cfg.Catalog, cfg.RequestTimeout)
	bag := NewStoreHandler(cfg.Catalog, provider.Bag, domain.NewBagItem, cfg.RequestTimeout)
	cart := NewStoreHandler(cfg.Catalog, provider.Cart, domain.NewCartItem, cfg.RequestTimeout)
	orders := NewCheckoutHandler(cfg.Checkout, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(provider.Middleware(cfg.Stores))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Event streams stay open, so only plain request routes get these.
	bounded := chi.Chain(
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Compress(5),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Use(bounded...)
			r.Get("/", products.List)
			r.Get("/brands", products.Brands)
			r.Get("/cheapest", products.Cheapest)
			r.Get("/most-expensive", products.MostExpensive)
			r.Get("/{id}", products.Get)
		})

		r.Route("/bag", func(r chi.Router) {
			r.Get("/events", bag.Events)
			r.Group(func(r chi.Router) {
				r.Use(bounded...)
				r.Get("/", bag.Get)
				r.Delete("/", bag.Clear)
				r.Post("/items", bag.AddItem)
				r.Delete("/items/{shoe_id}", bag.RemoveItem)
				r.Post("/shipping", orders.PlaceOrder)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/events", cart.Events)
			r.Group(func(r chi.Router) {
				r.Use(bounded...)
				r.Get("/", cart.Get)
				r.Delete("/", cart.Clear)
				r.Post("/items", cart.AddItem)
				r.Delete("/items/{shoe_id}", cart.RemoveItem)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
