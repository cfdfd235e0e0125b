package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/session"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Catalog  *catalog.Service
	Carts    *cart.Service
	Tokens   *session.TokenService
	Session  middleware.SessionOptions
	Logger   *logger.Logger
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthCheck
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Get("/healthz", Health(deps.Checks))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	catalogHandlers := NewCatalogHandlers(deps.Catalog, deps.Logger)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", catalogHandlers.ListProducts)
		r.Get("/featured", catalogHandlers.Featured)
		r.Get("/new-arrivals", catalogHandlers.NewArrivals)
		r.Get("/sale", catalogHandlers.SaleItems)
		r.Get("/facets", catalogHandlers.Facets)
		r.Get("/{id}", catalogHandlers.GetProduct)
		r.Get("/{id}/related", catalogHandlers.RelatedProducts)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", catalogHandlers.ListCategories)
		r.Get("/main", catalogHandlers.MainCategories)
		r.Get("/{slug}", catalogHandlers.GetCategory)
	})

	cartHandlers := NewCartHandlers(deps.Carts, deps.Logger)
	r.Get("/shipping-methods", cartHandlers.ShippingMethods)
	r.Route("/cart", func(r chi.Router) {
		r.Use(middleware.Session(deps.Tokens, deps.Session, deps.Logger))
		r.Get("/", cartHandlers.GetCart)
		r.Delete("/", cartHandlers.ClearCart)
		r.Post("/items", cartHandlers.AddItem)
		r.Patch("/items/{lineId}", cartHandlers.UpdateItem)
		r.Delete("/items/{lineId}", cartHandlers.RemoveItem)
	})

	return r
}
